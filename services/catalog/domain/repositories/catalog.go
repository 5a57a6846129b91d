package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/catalog/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return; 0 means no limit
	Offset int // Number of records to skip
}

// CatalogRepository is the storage interface for the Catalog aggregate.
// The domain layer owns this interface; infrastructure implements it.
type CatalogRepository interface {
	Save(ctx context.Context, catalog *models.Catalog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Catalog, error)

	// FindAll retrieves a page of catalogs in creation order.
	// Returns the catalogs slice and the total count (ignoring pagination).
	FindAll(ctx context.Context, opts QueryOpts) ([]*models.Catalog, int, error)

	// Exists reports whether a catalog with the given ID is stored.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
