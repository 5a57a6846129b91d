package services

import (
	"fmt"
	"io"

	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/services/catalog/domain/models"
	"github.com/ghuser/storefront/services/catalog/infrastructure/console"
	"github.com/ghuser/storefront/services/catalog/infrastructure/persistence/memory"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Catalog *CatalogService
}

// New wires all catalog application services with infrastructure from the
// Application container. All catalogs share one fresh Registry.
func New(a *app.Application, decider models.PriceDecider) (*Services, error) {
	var publisher EventPublisher
	if a.EventBus != nil {
		publisher = a.EventBus
	}
	repo := memory.NewCatalogRepository()
	catalog, err := NewCatalogService(repo, models.NewRegistry(), decider, publisher, a.Logger)
	if err != nil {
		return nil, err
	}
	return &Services{Catalog: catalog}, nil
}

// NewPriceDecider maps a PRICE_DROP_POLICY value to a decider. The prompt
// policy asks on out and reads the answer from in.
func NewPriceDecider(policy string, in io.Reader, out io.Writer) (models.PriceDecider, error) {
	switch policy {
	case config.PriceDropPrompt:
		return console.NewPricePrompt(in, out), nil
	case config.PriceDropAccept:
		return models.AlwaysConfirm, nil
	case config.PriceDropReject:
		return models.NeverConfirm, nil
	default:
		return nil, fmt.Errorf("unknown price drop policy %q", policy)
	}
}
