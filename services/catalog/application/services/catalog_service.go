package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/storefront/pkg/logger"
	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
	domainevents "github.com/ghuser/storefront/services/catalog/domain/events"
	"github.com/ghuser/storefront/services/catalog/domain/models"
	"github.com/ghuser/storefront/services/catalog/domain/repositories"
	domainsvcs "github.com/ghuser/storefront/services/catalog/domain/services"
	"github.com/ghuser/storefront/services/catalog/infrastructure/fixtures"
)

const instrumentationName = "github.com/ghuser/storefront/services/catalog"

const eventVersion = 1

// EventPublisher is the subset of the event bus the service needs.
type EventPublisher interface {
	PublishJSON(ctx context.Context, topic string, payload any) error
}

// CatalogService orchestrates catalogs, orders and price changes against one
// Registry. Every state change is logged and published as a domain event.
// A failed publish is logged; the state change it describes stands.
//
// The service is not safe for concurrent use: the catalogs it returns and the
// registry it counts on are plain in-memory values.
type CatalogService struct {
	repo     repositories.CatalogRepository
	registry *models.Registry
	decider  models.PriceDecider
	events   EventPublisher
	log      logger.Logger
	tracer   trace.Tracer

	itemsAdded   metric.Int64Counter
	itemsMerged  metric.Int64Counter
	ordersPlaced metric.Int64Counter
	priceChanges metric.Int64Counter
}

// NewCatalogService returns a CatalogService. Metrics and spans go to the
// global OTel providers installed by telemetry.Setup.
func NewCatalogService(
	repo repositories.CatalogRepository,
	registry *models.Registry,
	decider models.PriceDecider,
	publisher EventPublisher,
	log logger.Logger,
) (*CatalogService, error) {
	if registry == nil {
		return nil, errors.New("catalog service: registry is required")
	}

	meter := otel.Meter(instrumentationName)
	s := &CatalogService{
		repo:     repo,
		registry: registry,
		decider:  decider,
		events:   publisher,
		log:      log,
		tracer:   otel.Tracer(instrumentationName),
	}

	var err error
	if s.itemsAdded, err = meter.Int64Counter("catalog.items.added",
		metric.WithDescription("Distinct items inserted into catalogs")); err != nil {
		return nil, fmt.Errorf("catalog.items.added counter: %w", err)
	}
	if s.itemsMerged, err = meter.Int64Counter("catalog.items.merged",
		metric.WithDescription("Items merged into an existing entry")); err != nil {
		return nil, fmt.Errorf("catalog.items.merged counter: %w", err)
	}
	if s.ordersPlaced, err = meter.Int64Counter("catalog.orders.placed"); err != nil {
		return nil, fmt.Errorf("catalog.orders.placed counter: %w", err)
	}
	if s.priceChanges, err = meter.Int64Counter("catalog.price.changes",
		metric.WithDescription("Price change attempts by outcome")); err != nil {
		return nil, fmt.Errorf("catalog.price.changes counter: %w", err)
	}
	return s, nil
}

// Registry returns the registry every catalog of this service counts on.
func (s *CatalogService) Registry() *models.Registry {
	return s.registry
}

// CreateCatalog builds and stores a catalog with the given initial items.
func (s *CatalogService) CreateCatalog(ctx context.Context, name, description string, items ...models.Item) (*models.Catalog, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.create", trace.WithAttributes(
		attribute.String("catalog.name", name),
		attribute.Int("catalog.initial_items", len(items)),
	))
	defer span.End()

	c, err := models.NewCatalog(s.registry, name, description, items...)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("create catalog: %w", err)
	}
	if err := s.repo.Save(ctx, c); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("save catalog: %w", err)
	}

	for _, it := range c.Products() {
		s.log.DebugContext(ctx, "catalog item", "catalog", c.Name, "item", models.Describe(it))
	}
	s.log.InfoContext(ctx, "catalog created",
		"catalog_id", c.ID,
		"catalog", c.Name,
		"items", c.Len(),
		"catalogs_total", s.registry.Catalogs(),
	)
	s.publish(ctx, domainevents.TopicCatalogCreated, domainevents.CatalogCreatedEvent{
		EventID:    uuid.New(),
		Version:    eventVersion,
		CatalogID:  c.ID,
		Name:       c.Name,
		ItemCount:  c.Len(),
		OccurredAt: time.Now().UTC(),
	})
	return c, nil
}

// GetCatalog returns ErrCatalogNotFound when id is unknown.
func (s *CatalogService) GetCatalog(ctx context.Context, id uuid.UUID) (*models.Catalog, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get catalog: %w", err)
	}
	return c, nil
}

// ListCatalogs returns a page of catalogs plus the total count.
func (s *CatalogService) ListCatalogs(ctx context.Context, opts repositories.QueryOpts) ([]*models.Catalog, int, error) {
	catalogs, total, err := s.repo.FindAll(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list catalogs: %w", err)
	}
	return catalogs, total, nil
}

// AddItem inserts item into the catalog, merging it into a same-name entry.
// Invalid items are logged and returned as errors; the catalog is unchanged.
func (s *CatalogService) AddItem(ctx context.Context, catalogID uuid.UUID, item models.Item) (models.InsertResult, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_item", trace.WithAttributes(
		attribute.String("catalog.id", catalogID.String()),
	))
	defer span.End()

	c, err := s.GetCatalog(ctx, catalogID)
	if err != nil {
		recordError(span, err)
		return models.InsertResult{}, err
	}

	res, err := c.Insert(item)
	if err != nil {
		recordError(span, err)
		s.log.WarnContext(ctx, "item not added", "catalog", c.Name, "error", err)
		return models.InsertResult{}, fmt.Errorf("add item: %w", err)
	}

	s.recordInsert(ctx, c, res)
	return res, nil
}

// ApplyBundle validates a raw item bundle and applies it to the catalog: a
// case-insensitive name match absorbs the bundle, anything else becomes a new
// Product appended to the catalog.
func (s *CatalogService) ApplyBundle(ctx context.Context, catalogID uuid.UUID, data domainsvcs.ItemData) (models.InsertResult, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.apply_bundle", trace.WithAttributes(
		attribute.String("catalog.id", catalogID.String()),
		attribute.String("item.name", data.Name),
	))
	defer span.End()

	c, err := s.GetCatalog(ctx, catalogID)
	if err != nil {
		recordError(span, err)
		return models.InsertResult{}, err
	}

	var before decimal.Decimal
	for _, it := range c.Products() {
		if !models.IsNil(it) && strings.EqualFold(it.Name(), data.Name) {
			before = it.Price()
			break
		}
	}

	item, merged, err := domainsvcs.NewOrMerged(data, c.Products())
	if err != nil {
		recordError(span, err)
		s.log.WarnContext(ctx, "item bundle rejected", "catalog", c.Name, "error", err)
		return models.InsertResult{}, fmt.Errorf("apply bundle: %w", err)
	}

	var res models.InsertResult
	if merged {
		res = models.InsertResult{Outcome: models.ItemMerged, Item: item, PriceRaised: item.Price().GreaterThan(before)}
	} else if res, err = c.Insert(item); err != nil {
		recordError(span, err)
		return models.InsertResult{}, fmt.Errorf("apply bundle: %w", err)
	}

	s.recordInsert(ctx, c, res)
	return res, nil
}

// ImportFixtures creates one catalog per fixture and applies its bundles.
// An invalid bundle is logged and skipped; the rest of the fixture still loads.
func (s *CatalogService) ImportFixtures(ctx context.Context, fx []fixtures.CatalogFixture) ([]*models.Catalog, error) {
	catalogs := make([]*models.Catalog, 0, len(fx))
	for _, f := range fx {
		c, err := s.CreateCatalog(ctx, f.Name, f.Description)
		if err != nil {
			return catalogs, fmt.Errorf("import %q: %w", f.Name, err)
		}
		for _, data := range f.Items {
			if _, err := s.ApplyBundle(ctx, c.ID, data); err != nil {
				if errors.Is(err, catalogdomain.ErrInvalidItemData) {
					continue
				}
				return catalogs, fmt.Errorf("import %q: %w", f.Name, err)
			}
		}
		catalogs = append(catalogs, c)
	}
	return catalogs, nil
}

// PlaceOrder freezes the total of quantity units of item.
func (s *CatalogService) PlaceOrder(ctx context.Context, name, description string, item models.Item, quantity int) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.place_order", trace.WithAttributes(
		attribute.String("order.name", name),
		attribute.Int("order.quantity", quantity),
	))
	defer span.End()

	o, err := models.NewOrder(name, description, item, quantity)
	if err != nil {
		recordError(span, err)
		s.log.WarnContext(ctx, "order rejected", "order", name, "error", err)
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.ordersPlaced.Add(ctx, 1)
	s.log.InfoContext(ctx, "order placed",
		"order_id", o.ID,
		"item", item.Name(),
		"quantity", quantity,
		"total", o.TotalPrice().String(),
	)
	s.publish(ctx, domainevents.TopicOrderPlaced, domainevents.OrderPlacedEvent{
		EventID:    uuid.New(),
		Version:    eventVersion,
		OrderID:    o.ID,
		Name:       o.Name,
		ItemName:   item.Name(),
		Quantity:   o.Quantity,
		Total:      o.TotalPrice().String(),
		OccurredAt: time.Now().UTC(),
	})
	return o, nil
}

// ChangePrice sets the price of the named item through the service's
// PriceDecider. A non-positive price is not an error: it leaves the item
// unchanged, logs a warning and reports PriceRejected.
func (s *CatalogService) ChangePrice(ctx context.Context, catalogID uuid.UUID, itemName string, newPrice decimal.Decimal) (models.PriceChange, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.change_price", trace.WithAttributes(
		attribute.String("catalog.id", catalogID.String()),
		attribute.String("item.name", itemName),
	))
	defer span.End()

	c, err := s.GetCatalog(ctx, catalogID)
	if err != nil {
		recordError(span, err)
		return 0, err
	}
	item, ok := c.Find(itemName)
	if !ok {
		err := fmt.Errorf("%w: %q in catalog %q", catalogdomain.ErrItemNotFound, itemName, c.Name)
		recordError(span, err)
		return 0, err
	}

	from := item.Price()
	change := item.SetPrice(newPrice, s.decider)
	span.SetAttributes(attribute.String("price.outcome", change.String()))
	s.priceChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", change.String())))

	attrs := []any{"item", itemName, "from", from.String(), "to", newPrice.String(), "outcome", change.String()}
	switch change {
	case models.PriceRejected:
		s.log.WarnContext(ctx, "price must be positive, keeping current price", attrs...)
	case models.PriceDropDeclined:
		s.log.InfoContext(ctx, "price drop not confirmed", attrs...)
	default:
		s.log.InfoContext(ctx, "price changed", attrs...)
	}

	s.publish(ctx, domainevents.TopicPriceChanged, domainevents.PriceChangedEvent{
		EventID:    uuid.New(),
		Version:    eventVersion,
		Name:       itemName,
		From:       from.String(),
		To:         newPrice.String(),
		Outcome:    change.String(),
		OccurredAt: time.Now().UTC(),
	})
	return change, nil
}

func (s *CatalogService) recordInsert(ctx context.Context, c *models.Catalog, res models.InsertResult) {
	topic := domainevents.TopicItemAdded
	if res.Outcome == models.ItemMerged {
		topic = domainevents.TopicItemMerged
		s.itemsMerged.Add(ctx, 1)
	} else {
		s.itemsAdded.Add(ctx, 1)
	}

	s.log.InfoContext(ctx, "item "+res.Outcome.String(),
		"catalog", c.Name,
		"item", res.Item.Name(),
		"quantity", res.Item.Quantity(),
		"price", res.Item.Price().String(),
		"price_raised", res.PriceRaised,
	)
	s.publish(ctx, topic, domainevents.ItemStockEvent{
		EventID:     uuid.New(),
		Version:     eventVersion,
		CatalogID:   c.ID,
		Name:        res.Item.Name(),
		Kind:        res.Item.Kind().String(),
		Price:       res.Item.Price().String(),
		Quantity:    res.Item.Quantity(),
		PriceRaised: res.PriceRaised,
		OccurredAt:  time.Now().UTC(),
	})
}

func (s *CatalogService) publish(ctx context.Context, topic string, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(ctx, topic, event); err != nil {
		s.log.ErrorContext(ctx, "failed to publish event", "topic", topic, "error", err)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
