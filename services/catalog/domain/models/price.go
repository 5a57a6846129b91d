package models

import "github.com/shopspring/decimal"

// PriceDecider answers whether a price drop may go ahead. It is called
// synchronously from SetPrice and must always return.
type PriceDecider interface {
	ConfirmPriceDrop(item string, from, to decimal.Decimal) bool
}

// PriceDeciderFunc adapts a plain function to PriceDecider.
type PriceDeciderFunc func(item string, from, to decimal.Decimal) bool

func (f PriceDeciderFunc) ConfirmPriceDrop(item string, from, to decimal.Decimal) bool {
	return f(item, from, to)
}

var (
	// AlwaysConfirm approves every price drop.
	AlwaysConfirm PriceDecider = PriceDeciderFunc(func(string, decimal.Decimal, decimal.Decimal) bool { return true })
	// NeverConfirm declines every price drop.
	NeverConfirm PriceDecider = PriceDeciderFunc(func(string, decimal.Decimal, decimal.Decimal) bool { return false })
)

// PriceChange reports what SetPrice did.
type PriceChange int

const (
	// PriceRejected: the new price was zero or negative; nothing changed.
	PriceRejected PriceChange = iota + 1
	// PriceDropDeclined: the decider withheld confirmation; nothing changed.
	PriceDropDeclined
	PriceLowered
	PriceRaised
	// PriceKept: the new price equals the current one.
	PriceKept
)

func (c PriceChange) String() string {
	switch c {
	case PriceRejected:
		return "rejected"
	case PriceDropDeclined:
		return "drop_declined"
	case PriceLowered:
		return "lowered"
	case PriceRaised:
		return "raised"
	case PriceKept:
		return "kept"
	default:
		return "unknown"
	}
}

// Applied reports whether the item now carries the requested price.
func (c PriceChange) Applied() bool {
	return c == PriceLowered || c == PriceRaised || c == PriceKept
}

// SetPrice applies newPrice unless it is non-positive (PriceRejected) or a
// drop the decider declines. A nil decider declines every drop.
func (b *base) SetPrice(newPrice decimal.Decimal, decider PriceDecider) PriceChange {
	switch {
	case !newPrice.IsPositive():
		return PriceRejected
	case newPrice.LessThan(b.price):
		if decider == nil || !decider.ConfirmPriceDrop(b.name, b.price, newPrice) {
			return PriceDropDeclined
		}
		b.price = newPrice
		return PriceLowered
	case newPrice.Equal(b.price):
		b.price = newPrice
		return PriceKept
	default:
		b.price = newPrice
		return PriceRaised
	}
}
