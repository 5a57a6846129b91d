package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics published by the catalog application service.
const (
	TopicCatalogCreated = "catalog.created"
	TopicItemAdded      = "catalog.item_added"
	TopicItemMerged     = "catalog.item_merged"
	TopicPriceChanged   = "catalog.price_changed"
	TopicOrderPlaced    = "catalog.order_placed"
)

// CatalogCreatedEvent is published after a catalog is built with its initial items.
type CatalogCreatedEvent struct {
	EventID    uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int       `json:"version"`  // Schema version; increment on breaking changes
	CatalogID  uuid.UUID `json:"catalog_id"`
	Name       string    `json:"name"`
	ItemCount  int       `json:"item_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ItemStockEvent is published for both new entries (TopicItemAdded) and
// merges into an existing entry (TopicItemMerged). Price is a decimal string.
type ItemStockEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	Version     int       `json:"version"`
	CatalogID   uuid.UUID `json:"catalog_id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	PriceRaised bool      `json:"price_raised,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PriceChangedEvent is published for every SetPrice attempt, applied or not.
type PriceChangedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	Name       string    `json:"name"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Outcome    string    `json:"outcome"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderPlacedEvent is published after an order freezes its total.
type OrderPlacedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	OrderID    uuid.UUID `json:"order_id"`
	Name       string    `json:"name"`
	ItemName   string    `json:"item_name"`
	Quantity   int       `json:"quantity"`
	Total      string    `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}
