// Package services contains stateless domain services for the catalog bounded context.
// They operate purely on domain types; the only outside help is struct-tag
// validation of raw input.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgvalidator "github.com/ghuser/storefront/pkg/validator"
	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
	"github.com/ghuser/storefront/services/catalog/domain/models"
)

// ItemData is the raw field bundle an item can be built from.
type ItemData struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
}

// ValidateItemData enforces the bundle rules: a name, a positive price and a
// positive quantity. Failures wrap ErrInvalidItemData; a non-positive
// quantity also wraps ErrInvalidQuantity.
func ValidateItemData(data ItemData) error {
	var problems []string
	if err := pkgvalidator.Validate(&data); err != nil {
		problems = append(problems, pkgvalidator.Summary(err))
	}
	if !data.Price.IsPositive() {
		problems = append(problems, "price: Must be greater than 0")
	}
	if len(problems) == 0 {
		return nil
	}
	detail := errors.New(strings.Join(problems, "; "))
	if data.Quantity <= 0 {
		return fmt.Errorf("%w: %w: %w", catalogdomain.ErrInvalidItemData, catalogdomain.ErrInvalidQuantity, detail)
	}
	return fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItemData, detail)
}

// NewOrMerged returns the item in existing whose name matches data.Name
// case-insensitively, after merging the bundle into it (quantity adds up, a
// strictly higher price replaces price and description). Without a match a
// new Product is built from the bundle. merged reports which path was taken.
func NewOrMerged(data ItemData, existing []models.Item) (item models.Item, merged bool, err error) {
	if err := ValidateItemData(data); err != nil {
		return nil, false, err
	}

	for _, it := range existing {
		if models.IsNil(it) {
			continue
		}
		if strings.EqualFold(it.Name(), data.Name) {
			models.Absorb(it, data.Quantity, data.Price, data.Description)
			return it, true, nil
		}
	}

	p, err := models.NewProduct(data.Name, data.Description, data.Price, data.Quantity)
	if err != nil {
		return nil, false, fmt.Errorf("new product: %w", err)
	}
	return p, false, nil
}
