package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
)

// Order references one item and freezes its total at construction. Later
// price changes on the item do not touch the total.
type Order struct {
	ID          uuid.UUID
	Name        string
	Description string
	Item        Item
	Quantity    int

	totalPrice decimal.Decimal
}

func NewOrder(name, description string, item Item, quantity int) (*Order, error) {
	if IsNil(item) {
		return nil, fmt.Errorf("order %q: %w: item is nil", name, catalogdomain.ErrInvalidMember)
	}
	if item.Quantity() <= 0 {
		return nil, fmt.Errorf("order %q: %w: item %q is out of stock", name, catalogdomain.ErrInvalidQuantity, item.Name())
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("order %q: %w: ordered quantity must be positive, got %d",
			name, catalogdomain.ErrInvalidQuantity, quantity)
	}
	return &Order{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Item:        item,
		Quantity:    quantity,
		totalPrice:  item.Price().Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// TotalPrice is the item price at construction times the ordered quantity.
func (o *Order) TotalPrice() decimal.Decimal {
	return o.totalPrice
}

func (o *Order) String() string {
	return fmt.Sprintf("Order: %s, Item: %s, Quantity: %d, Total: %s %s",
		o.Name, o.Item.Name(), o.Quantity, o.totalPrice, Currency)
}
