package sse

import (
	"time"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

// CatalogNotifier is the interface services use to emit catalog events.
type CatalogNotifier interface {
	NotifyProductCreated(p *models.Product)
	NotifyProductUpdated(p *models.Product)
	NotifyProductDeleted(p *models.Product)
	NotifyVariantsRegenerated(p *models.Product, plan variant.SyncPlan, total int)
	NotifyVariantUpdated(p *models.Product, variantID string)
}

// HubNotifier implements CatalogNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyProductCreated(p *models.Product) {
	n.broadcast(productEvent(EventProductCreated, p))
}

func (n *HubNotifier) NotifyProductUpdated(p *models.Product) {
	n.broadcast(productEvent(EventProductUpdated, p))
}

func (n *HubNotifier) NotifyProductDeleted(p *models.Product) {
	n.broadcast(productEvent(EventProductDeleted, p))
}

func (n *HubNotifier) NotifyVariantsRegenerated(p *models.Product, plan variant.SyncPlan, total int) {
	ev := productEvent(EventVariantsRegenerated, p)
	inserted, updated, deleted := len(plan.Insert), len(plan.Update), len(plan.Delete)
	ev.VariantCount = &total
	ev.Inserted = &inserted
	ev.Updated = &updated
	ev.Deleted = &deleted
	n.broadcast(ev)
}

func (n *HubNotifier) NotifyVariantUpdated(p *models.Product, variantID string) {
	ev := productEvent(EventVariantUpdated, p)
	ev.VariantID = variantID
	n.broadcast(ev)
}

func (n *HubNotifier) broadcast(ev *CatalogEvent) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(ev)
}

func productEvent(eventType EventType, p *models.Product) *CatalogEvent {
	return &CatalogEvent{
		Event:     eventType,
		ProductID: p.ID,
		Slug:      p.Slug,
		Timestamp: time.Now(),
	}
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyProductCreated(p *models.Product)                                        {}
func (n *NopNotifier) NotifyProductUpdated(p *models.Product)                                        {}
func (n *NopNotifier) NotifyProductDeleted(p *models.Product)                                        {}
func (n *NopNotifier) NotifyVariantsRegenerated(p *models.Product, plan variant.SyncPlan, total int) {}
func (n *NopNotifier) NotifyVariantUpdated(p *models.Product, variantID string)                      {}
