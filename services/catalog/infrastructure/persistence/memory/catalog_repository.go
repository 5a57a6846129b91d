// Package memory keeps catalogs in process memory. State is lost on exit.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
	"github.com/ghuser/storefront/services/catalog/domain/models"
	"github.com/ghuser/storefront/services/catalog/domain/repositories"
)

// CatalogRepository implements repositories.CatalogRepository over a map.
// The repository guards its own index; the catalogs it hands out are not
// safe for concurrent mutation.
type CatalogRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*models.Catalog
	order []uuid.UUID
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository returns an empty CatalogRepository.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{byID: make(map[uuid.UUID]*models.Catalog)}
}

// Save stores catalog, replacing any catalog with the same ID in place.
func (r *CatalogRepository) Save(ctx context.Context, catalog *models.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if catalog == nil {
		return fmt.Errorf("save catalog: %w: catalog is nil", catalogdomain.ErrInvalidMember)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[catalog.ID]; !ok {
		r.order = append(r.order, catalog.ID)
	}
	r.byID[catalog.ID] = catalog
	return nil
}

// GetByID returns ErrCatalogNotFound when id is unknown.
func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalogdomain.ErrCatalogNotFound, id)
	}
	return c, nil
}

// FindAll returns catalogs in the order they were first saved.
func (r *CatalogRepository) FindAll(ctx context.Context, opts repositories.QueryOpts) ([]*models.Catalog, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.order)
	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}

	catalogs := make([]*models.Catalog, 0, end-start)
	for _, id := range r.order[start:end] {
		catalogs = append(catalogs, r.byID[id])
	}
	return catalogs, total, nil
}

// Exists reports whether a catalog with the given ID is stored.
func (r *CatalogRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok, nil
}
