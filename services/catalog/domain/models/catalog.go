package models

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
)

var errNoRegistry = errors.New("catalog registry is required")

// InsertOutcome tells whether Insert appended a new entry or merged into an existing one.
type InsertOutcome int

const (
	ItemAdded InsertOutcome = iota + 1
	ItemMerged
)

func (o InsertOutcome) String() string {
	switch o {
	case ItemAdded:
		return "added"
	case ItemMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// InsertResult describes a successful Insert.
type InsertResult struct {
	Outcome InsertOutcome
	// Item is the entry the catalog holds after the insert.
	Item Item
	// PriceRaised is set when a merge replaced price and description.
	PriceRaised bool
}

// Catalog is an ordered collection of items unique by name. Items keep
// first-seen order. Build catalogs with NewCatalog; a Catalog without a
// registry refuses inserts.
type Catalog struct {
	ID          uuid.UUID
	Name        string
	Description string

	items    []Item
	registry *Registry
}

// NewCatalog builds a catalog against reg and inserts the initial items in
// order, merging duplicates as Insert does. Nothing is counted on reg when
// any initial item is invalid.
func NewCatalog(reg *Registry, name, description string, items ...Item) (*Catalog, error) {
	if reg == nil {
		return nil, errNoRegistry
	}
	for i, it := range items {
		if err := checkMember(it); err != nil {
			return nil, fmt.Errorf("catalog %q: initial item %d: %w", name, i, err)
		}
	}

	c := &Catalog{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		registry:    reg,
	}
	for _, it := range items {
		if _, err := c.Insert(it); err != nil {
			return nil, err
		}
	}
	reg.catalogCreated()
	return c, nil
}

// Insert adds item, or merges it into the entry with the same name: the
// quantities add up and a strictly higher price overwrites price and
// description. Only a new name is counted on the registry.
func (c *Catalog) Insert(item Item) (InsertResult, error) {
	if c.registry == nil {
		return InsertResult{}, fmt.Errorf("insert into %q: %w", c.Name, errNoRegistry)
	}
	if err := checkMember(item); err != nil {
		return InsertResult{}, fmt.Errorf("insert into %q: %w", c.Name, err)
	}

	if existing := c.lookup(item.Name()); existing != nil {
		raised := Absorb(existing, item.Quantity(), item.Price(), item.Description())
		return InsertResult{Outcome: ItemMerged, Item: existing, PriceRaised: raised}, nil
	}

	c.items = append(c.items, item)
	c.registry.itemRegistered()
	return InsertResult{Outcome: ItemAdded, Item: item}, nil
}

// Items yields the rendered form of every item in insertion order.
// The sequence can be ranged over any number of times.
func (c *Catalog) Items() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, it := range c.items {
			if !yield(it.String()) {
				return
			}
		}
	}
}

// Products returns the held items in insertion order. The slice is a copy;
// the items are shared.
func (c *Catalog) Products() []Item {
	return slices.Clone(c.items)
}

// Find returns the item whose name matches exactly.
func (c *Catalog) Find(name string) (Item, bool) {
	it := c.lookup(name)
	return it, it != nil
}

// Len returns the number of distinct items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// TotalQuantity sums the quantities of all items.
func (c *Catalog) TotalQuantity() int {
	total := 0
	for _, it := range c.items {
		total += it.Quantity()
	}
	return total
}

// AveragePrice is the quantity-weighted mean price. It is zero when the
// catalog holds no stock.
func (c *Catalog) AveragePrice() decimal.Decimal {
	qty := c.TotalQuantity()
	if qty == 0 {
		return decimal.Zero
	}
	value := decimal.Zero
	for _, it := range c.items {
		value = value.Add(StockValue(it))
	}
	return value.Div(decimal.NewFromInt(int64(qty)))
}

func (c *Catalog) String() string {
	return fmt.Sprintf("%s, item count: %d", c.Name, c.TotalQuantity())
}

func (c *Catalog) lookup(name string) Item {
	for _, it := range c.items {
		if it.Name() == name {
			return it
		}
	}
	return nil
}

func checkMember(it Item) error {
	if IsNil(it) {
		return fmt.Errorf("%w: item is nil", catalogdomain.ErrInvalidMember)
	}
	if it.Quantity() <= 0 {
		return fmt.Errorf("%w: item %q has quantity %d", catalogdomain.ErrInvalidQuantity, it.Name(), it.Quantity())
	}
	return nil
}
