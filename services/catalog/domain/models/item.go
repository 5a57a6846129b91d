package models

import (
	"fmt"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
)

// Currency is the label appended to every rendered price.
const Currency = "RUB"

// Kind identifies the concrete variant behind an Item.
type Kind int

const (
	KindProduct Kind = iota + 1
	KindSmartphone
	KindLawnGrass
)

func (k Kind) String() string {
	switch k {
	case KindProduct:
		return "Product"
	case KindSmartphone:
		return "Smartphone"
	case KindLawnGrass:
		return "LawnGrass"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Item is what every catalog entry can do: be named, priced and rendered.
// Product, Smartphone and LawnGrass are the implementations.
type Item interface {
	Name() string
	Description() string
	Price() decimal.Decimal
	Quantity() int
	Kind() Kind
	// SetPrice is the gated price mutation; see PriceChange for outcomes.
	SetPrice(newPrice decimal.Decimal, decider PriceDecider) PriceChange
	fmt.Stringer

	stock() *base
}

// base carries the fields shared by all variants.
type base struct {
	name        string
	description string
	price       decimal.Decimal
	quantity    int
}

func newBase(name, description string, price decimal.Decimal, quantity int) (base, error) {
	if quantity <= 0 {
		return base{}, fmt.Errorf("%w: item %q needs a positive quantity, got %d",
			catalogdomain.ErrInvalidQuantity, name, quantity)
	}
	return base{
		name:        name,
		description: description,
		price:       price,
		quantity:    quantity,
	}, nil
}

func (b *base) Name() string           { return b.name }
func (b *base) Description() string    { return b.description }
func (b *base) Price() decimal.Decimal { return b.price }
func (b *base) Quantity() int          { return b.quantity }
func (b *base) stock() *base           { return b }

// Product is the generic catalog item.
type Product struct {
	base
}

// NewProduct constructs a Product. A non-positive quantity fails with ErrInvalidQuantity.
func NewProduct(name, description string, price decimal.Decimal, quantity int) (*Product, error) {
	b, err := newBase(name, description, price, quantity)
	if err != nil {
		return nil, err
	}
	return &Product{base: b}, nil
}

func (p *Product) Kind() Kind { return KindProduct }

func (p *Product) String() string {
	return fmt.Sprintf("%s, %s %s. Remaining: %d", p.name, p.price, Currency, p.quantity)
}

// SmartphoneSpec holds the attributes only smartphones carry.
type SmartphoneSpec struct {
	Efficiency float64
	Model      string
	MemoryGB   int
	Color      string
}

// Smartphone is a device item with a capability rating, model, memory size and color.
type Smartphone struct {
	base
	SmartphoneSpec
}

func NewSmartphone(name, description string, price decimal.Decimal, quantity int, spec SmartphoneSpec) (*Smartphone, error) {
	b, err := newBase(name, description, price, quantity)
	if err != nil {
		return nil, err
	}
	return &Smartphone{base: b, SmartphoneSpec: spec}, nil
}

func (s *Smartphone) Kind() Kind { return KindSmartphone }

func (s *Smartphone) String() string {
	return fmt.Sprintf("%s (%s), %s %s. Memory: %dGB, Color: %s. Remaining: %d",
		s.name, s.Model, s.price, Currency, s.MemoryGB, s.Color, s.quantity)
}

// LawnGrassSpec holds the attributes only lawn grass carries.
type LawnGrassSpec struct {
	Country           string
	GerminationPeriod string
	Color             string
}

// LawnGrass is a ground-cover item with origin, germination period and color.
type LawnGrass struct {
	base
	LawnGrassSpec
}

func NewLawnGrass(name, description string, price decimal.Decimal, quantity int, spec LawnGrassSpec) (*LawnGrass, error) {
	b, err := newBase(name, description, price, quantity)
	if err != nil {
		return nil, err
	}
	return &LawnGrass{base: b, LawnGrassSpec: spec}, nil
}

func (g *LawnGrass) Kind() Kind { return KindLawnGrass }

func (g *LawnGrass) String() string {
	return fmt.Sprintf("%s, %s %s. Country: %s, Germination: %s. Remaining: %d",
		g.name, g.price, Currency, g.Country, g.GerminationPeriod, g.quantity)
}

// Describe returns the constructor-style debug form of an item,
// e.g. Product('Iphone 15', '512GB', 210000, 8).
func Describe(it Item) string {
	if IsNil(it) {
		return "<nil>"
	}
	return fmt.Sprintf("%s('%s', '%s', %s, %d)", it.Kind(), it.Name(), it.Description(), it.Price(), it.Quantity())
}

// StockValue is price multiplied by remaining quantity.
func StockValue(it Item) decimal.Decimal {
	return it.Price().Mul(decimal.NewFromInt(int64(it.Quantity())))
}

// CombineValue returns the summed stock value of two items of the same variant.
// Items of different variants fail with ErrIncompatibleVariant.
func CombineValue(a, b Item) (decimal.Decimal, error) {
	if IsNil(a) || IsNil(b) {
		return decimal.Zero, fmt.Errorf("%w: cannot combine a nil item", catalogdomain.ErrInvalidMember)
	}
	if a.Kind() != b.Kind() {
		return decimal.Zero, fmt.Errorf("%w: cannot combine %s with %s",
			catalogdomain.ErrIncompatibleVariant, a.Kind(), b.Kind())
	}
	return StockValue(a).Add(StockValue(b)), nil
}

// Absorb merges incoming stock into dst. Quantity accumulates; a strictly
// higher price replaces both price and description. The SetPrice gate does
// not apply here. Reports whether the price was raised.
func Absorb(dst Item, quantity int, price decimal.Decimal, description string) bool {
	b := dst.stock()
	b.quantity += quantity
	if price.GreaterThan(b.price) {
		b.price = price
		b.description = description
		return true
	}
	return false
}

// IsNil reports whether it is nil or a typed nil pointer to a known variant.
func IsNil(it Item) bool {
	switch v := it.(type) {
	case nil:
		return true
	case *Product:
		return v == nil
	case *Smartphone:
		return v == nil
	case *LawnGrass:
		return v == nil
	default:
		return false
	}
}
