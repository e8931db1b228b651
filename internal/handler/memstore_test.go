package handler

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"strings"
	"sync"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/repository"
	"github.com/GTDGit/gtd_catalog/internal/storage"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

type memProducts struct {
	mu   sync.Mutex
	rows []models.Product
}

func (m *memProducts) find(match func(models.Product) bool) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if match(p) {
			p := p
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memProducts) GetByID(_ context.Context, id int) (*models.Product, error) {
	return m.find(func(p models.Product) bool { return p.ID == id })
}

func (m *memProducts) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	return m.find(func(p models.Product) bool { return p.Slug == slug })
}

func (m *memProducts) SlugExists(_ context.Context, slug string, excludeID int) (bool, error) {
	_, err := m.find(func(p models.Product) bool { return p.Slug == slug && p.ID != excludeID })
	return err == nil, nil
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = len(m.rows) + 1
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memProducts) Update(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == p.ID {
			m.rows[i] = *p
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memProducts) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memProducts) ListAdmin(_ context.Context, f *repository.AdminProductFilter) (*repository.AdminProductResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Product{}, m.rows...)
	return &repository.AdminProductResult{Products: out, TotalItems: len(out), TotalPages: 1, Page: f.Page, Limit: f.Limit}, nil
}

func (m *memProducts) ListActive(_ context.Context, _ string, _, _ int) ([]models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.rows {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *memProducts) ListActiveSlugs(ctx context.Context) ([]string, error) {
	ps, _, _ := m.ListActive(ctx, "", 1, 0)
	var slugs []string
	for _, p := range ps {
		slugs = append(slugs, p.Slug)
	}
	return slugs, nil
}

type memVariants struct {
	mu   sync.Mutex
	rows map[int][]variant.Variant
}

func (m *memVariants) ListByProduct(_ context.Context, productID int) ([]variant.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]variant.Variant{}, m.rows[productID]...)
	variant.SortVariants(out)
	return out, nil
}

func (m *memVariants) index(productID int, id string) int {
	for i, v := range m.rows[productID] {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (m *memVariants) GetByID(_ context.Context, productID int, id string) (*models.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(productID, id)
	if i < 0 {
		return nil, sql.ErrNoRows
	}
	row := models.NewProductVariant(productID, m.rows[productID][i])
	return &row, nil
}

func (m *memVariants) UpdateStock(_ context.Context, row *models.ProductVariant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(row.ProductID, row.ID)
	if i < 0 {
		return sql.ErrNoRows
	}
	m.rows[row.ProductID][i].Price = row.Price
	m.rows[row.ProductID][i].InventoryQuantity = row.InventoryQuantity
	return nil
}

func (m *memVariants) SetImage(_ context.Context, productID int, id string, image *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(productID, id)
	if i < 0 {
		return sql.ErrNoRows
	}
	m.rows[productID][i].Image = image
	return nil
}

func (m *memVariants) ListImages(_ context.Context, productID int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, v := range m.rows[productID] {
		if v.Image != nil {
			out = append(out, *v.Image)
		}
	}
	return out, nil
}

type memOptions struct {
	mu       sync.Mutex
	rows     map[int][]variant.Option
	variants *memVariants
}

func (m *memOptions) ListByProduct(_ context.Context, productID int) ([]variant.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[productID], nil
}

// SaveWithVariants applies plan to the stored variants.
func (m *memOptions) SaveWithVariants(_ context.Context, productID int, options []variant.Option, plan variant.SyncPlan) error {
	m.mu.Lock()
	m.rows[productID] = options
	m.mu.Unlock()

	m.variants.mu.Lock()
	defer m.variants.mu.Unlock()
	gone := map[string]bool{}
	for _, d := range plan.Delete {
		gone[d.ID] = true
	}
	updated := map[string]variant.Variant{}
	for _, u := range plan.Update {
		updated[u.ID] = u
	}
	var kept []variant.Variant
	for _, v := range m.variants.rows[productID] {
		if gone[v.ID] {
			continue
		}
		if u, ok := updated[v.ID]; ok {
			v = u
		}
		kept = append(kept, v)
	}
	m.variants.rows[productID] = append(kept, plan.Insert...)
	return nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memStorage) Put(_ context.Context, r io.Reader, in storage.PutInput) (storage.PutResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return storage.PutResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := "variants/" + in.Filename
	m.objects[key] = buf.Bytes()
	return storage.PutResult{Key: key, URL: "/uploads/" + key}, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, "/uploads/") {
		return "", false
	}
	return strings.TrimPrefix(url, "/uploads/"), true
}
