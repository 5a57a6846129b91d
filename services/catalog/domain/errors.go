package domain

import "errors"

// Sentinel errors for the catalog domain. Use errors.Is() to check these.
var (
	// ErrInvalidQuantity indicates an item or order was built or inserted with a non-positive quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrIncompatibleVariant indicates two items of different variants were combined.
	ErrIncompatibleVariant = errors.New("incompatible item variant")

	// ErrInvalidMember indicates a value that is not a usable item was handed to a catalog or order.
	ErrInvalidMember = errors.New("invalid catalog member")

	// ErrInvalidItemData indicates a raw item bundle failed validation.
	ErrInvalidItemData = errors.New("invalid item data")

	// ErrCatalogNotFound indicates no catalog exists with the given ID.
	ErrCatalogNotFound = errors.New("catalog not found")

	// ErrItemNotFound indicates the catalog holds no item with the given name.
	ErrItemNotFound = errors.New("item not found")
)
