package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/repository"
	"github.com/GTDGit/gtd_catalog/internal/storage"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

type fakeProducts struct {
	mu        sync.Mutex
	nextID    int
	rows      map[int]models.Product
	slugReads int
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{rows: map[int]models.Product{}}
}

func (f *fakeProducts) GetByID(_ context.Context, id int) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (f *fakeProducts) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugReads++
	for _, p := range f.rows {
		if p.Slug == slug {
			p := p
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProducts) SlugExists(_ context.Context, slug string, excludeID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.rows {
		if p.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[p.ID]; !ok {
		return sql.ErrNoRows
	}
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeProducts) ListAdmin(_ context.Context, filter *repository.AdminProductFilter) (*repository.AdminProductResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.rows {
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return &repository.AdminProductResult{Products: out, TotalItems: len(out), TotalPages: 1, Page: 1, Limit: 50}, nil
}

func (f *fakeProducts) ListActive(_ context.Context, _ string, _, _ int) ([]models.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.rows {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeProducts) ListActiveSlugs(ctx context.Context) ([]string, error) {
	ps, _, _ := f.ListActive(ctx, "", 1, 0)
	slugs := make([]string, len(ps))
	for i, p := range ps {
		slugs[i] = p.Slug
	}
	return slugs, nil
}

type fakeVariants struct {
	mu        sync.Mutex
	byProduct map[int][]variant.Variant
}

func newFakeVariants() *fakeVariants {
	return &fakeVariants{byProduct: map[int][]variant.Variant{}}
}

func cloneVariant(v variant.Variant) variant.Variant {
	out := v
	out.OptionValues = append([]variant.OptionValue(nil), v.OptionValues...)
	if v.Image != nil {
		img := *v.Image
		out.Image = &img
	}
	return out
}

func (f *fakeVariants) ListByProduct(_ context.Context, productID int) ([]variant.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]variant.Variant, 0, len(f.byProduct[productID]))
	for _, v := range f.byProduct[productID] {
		out = append(out, cloneVariant(v))
	}
	variant.SortVariants(out)
	return out, nil
}

func (f *fakeVariants) find(productID int, id string) int {
	for i, v := range f.byProduct[productID] {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeVariants) GetByID(_ context.Context, productID int, id string) (*models.ProductVariant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(productID, id)
	if i < 0 {
		return nil, sql.ErrNoRows
	}
	row := models.NewProductVariant(productID, cloneVariant(f.byProduct[productID][i]))
	return &row, nil
}

func (f *fakeVariants) UpdateStock(_ context.Context, row *models.ProductVariant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(row.ProductID, row.ID)
	if i < 0 {
		return sql.ErrNoRows
	}
	f.byProduct[row.ProductID][i].Price = row.Price
	f.byProduct[row.ProductID][i].InventoryQuantity = row.InventoryQuantity
	return nil
}

func (f *fakeVariants) SetImage(_ context.Context, productID int, id string, image *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(productID, id)
	if i < 0 {
		return sql.ErrNoRows
	}
	var img *string
	if image != nil {
		s := *image
		img = &s
	}
	f.byProduct[productID][i].Image = img
	return nil
}

func (f *fakeVariants) ListImages(_ context.Context, productID int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, v := range f.byProduct[productID] {
		if v.Image != nil {
			out = append(out, *v.Image)
		}
	}
	return out, nil
}

func (f *fakeVariants) apply(productID int, plan variant.SyncPlan) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gone := map[string]bool{}
	for _, d := range plan.Delete {
		gone[d.ID] = true
	}
	updates := map[string]variant.Variant{}
	for _, u := range plan.Update {
		updates[u.ID] = u
	}
	var kept []variant.Variant
	for _, v := range f.byProduct[productID] {
		if gone[v.ID] {
			continue
		}
		if u, ok := updates[v.ID]; ok {
			v = cloneVariant(u)
		}
		kept = append(kept, v)
	}
	for _, ins := range plan.Insert {
		kept = append(kept, cloneVariant(ins))
	}
	f.byProduct[productID] = kept
}

type fakeOptions struct {
	mu        sync.Mutex
	byProduct map[int][]variant.Option
	variants  *fakeVariants
	plans     []variant.SyncPlan
	err       error
}

func newFakeOptions(v *fakeVariants) *fakeOptions {
	return &fakeOptions{byProduct: map[int][]variant.Option{}, variants: v}
}

func (f *fakeOptions) ListByProduct(_ context.Context, productID int) ([]variant.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return variant.SortByRank(f.byProduct[productID]), nil
}

func (f *fakeOptions) SaveWithVariants(_ context.Context, productID int, options []variant.Option, plan variant.SyncPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.byProduct[productID] = variant.SortByRank(options)
	f.plans = append(f.plans, plan)
	f.variants.apply(productID, plan)
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]models.ProductDetail
	invalidated []string
	err         error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]models.ProductDetail{}}
}

func (f *fakeCache) Get(_ context.Context, slug string) (*models.ProductDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.entries[slug]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeCache) Set(_ context.Context, d *models.ProductDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[d.Slug] = *d
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, slugs ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range slugs {
		delete(f.entries, s)
		f.invalidated = append(f.invalidated, s)
	}
	return nil
}

const fakeStorageBase = "https://cdn.test/"

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	n       int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Put(_ context.Context, r io.Reader, in storage.PutInput) (storage.PutResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return storage.PutResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	key := fmt.Sprintf("img-%d-%s", f.n, in.Filename)
	f.objects[key] = buf.Bytes()
	return storage.PutResult{Key: key, URL: fakeStorageBase + key}, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return errors.New("no such object")
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, fakeStorageBase) {
		return "", false
	}
	return strings.TrimPrefix(url, fakeStorageBase), true
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(ev string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) NotifyProductCreated(p *models.Product) { n.record("created:" + p.Slug) }
func (n *recordingNotifier) NotifyProductUpdated(p *models.Product) { n.record("updated:" + p.Slug) }
func (n *recordingNotifier) NotifyProductDeleted(p *models.Product) { n.record("deleted:" + p.Slug) }
func (n *recordingNotifier) NotifyVariantsRegenerated(p *models.Product, plan variant.SyncPlan, total int) {
	n.record(fmt.Sprintf("regenerated:%s:%d", p.Slug, total))
}
func (n *recordingNotifier) NotifyVariantUpdated(p *models.Product, variantID string) {
	n.record("variant:" + variantID)
}
