package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ghuser/storefront/pkg/logger"
	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
	domainevents "github.com/ghuser/storefront/services/catalog/domain/events"
	"github.com/ghuser/storefront/services/catalog/domain/models"
	"github.com/ghuser/storefront/services/catalog/domain/repositories"
	domainsvcs "github.com/ghuser/storefront/services/catalog/domain/services"
	"github.com/ghuser/storefront/services/catalog/infrastructure/fixtures"
	"github.com/ghuser/storefront/services/catalog/infrastructure/persistence/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, payload)
	return p.err
}

func (p *recordingPublisher) last() (string, any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.topics) == 0 {
		return "", nil
	}
	return p.topics[len(p.topics)-1], p.events[len(p.events)-1]
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustProduct(t *testing.T, name, price string, qty int) *models.Product {
	t.Helper()
	p, err := models.NewProduct(name, name+" description", dec(price), qty)
	if err != nil {
		t.Fatalf("NewProduct(%q): %v", name, err)
	}
	return p
}

func newTestService(t *testing.T, decider models.PriceDecider) (*CatalogService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc, err := NewCatalogService(memory.NewCatalogRepository(), models.NewRegistry(), decider, pub, logger.Nop())
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc, pub
}

func TestNewCatalogService_RequiresRegistry(t *testing.T) {
	_, err := NewCatalogService(memory.NewCatalogRepository(), nil, nil, nil, logger.Nop())
	if err == nil {
		t.Fatal("expected error without registry")
	}
}

func TestCatalogService_CreateCatalog(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t, nil)

	c, err := svc.CreateCatalog(ctx, "Smartphones", "Phones",
		mustProduct(t, "Samsung Galaxy S23 Ultra", "180000.0", 5),
		mustProduct(t, "Iphone 15", "210000.0", 8),
		mustProduct(t, "Xiaomi Redmi Note 11", "31000.0", 14),
	)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := c.AveragePrice().StringFixed(2); got != "111629.63" {
		t.Errorf("expected average 111629.63, got %s", got)
	}
	if svc.Registry().Catalogs() != 1 || svc.Registry().Items() != 3 {
		t.Errorf("unexpected registry counts: catalogs=%d items=%d", svc.Registry().Catalogs(), svc.Registry().Items())
	}

	stored, err := svc.GetCatalog(ctx, c.ID)
	if err != nil || stored != c {
		t.Fatalf("expected stored catalog, got %v, %v", stored, err)
	}

	topic, payload := pub.last()
	if topic != domainevents.TopicCatalogCreated {
		t.Fatalf("expected %s, got %s", domainevents.TopicCatalogCreated, topic)
	}
	ev, ok := payload.(domainevents.CatalogCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", payload)
	}
	if ev.CatalogID != c.ID || ev.ItemCount != 3 || ev.Version != 1 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestCatalogService_CreateCatalog_InvalidItem(t *testing.T) {
	svc, pub := newTestService(t, nil)

	_, err := svc.CreateCatalog(context.Background(), "Broken", "", nil)
	if !errors.Is(err, catalogdomain.ErrInvalidMember) {
		t.Fatalf("expected ErrInvalidMember, got %v", err)
	}
	if svc.Registry().Catalogs() != 0 {
		t.Error("failed creation must not be counted")
	}
	if topic, _ := pub.last(); topic != "" {
		t.Errorf("expected no event, got %s", topic)
	}
}

func TestCatalogService_GetCatalog_NotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if _, err := svc.GetCatalog(context.Background(), uuid.New()); !errors.Is(err, catalogdomain.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestCatalogService_ListCatalogs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	for _, name := range []string{"Smartphones", "Televisions", "Grass"} {
		if _, err := svc.CreateCatalog(ctx, name, ""); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	page, total, err := svc.ListCatalogs(ctx, repositories.QueryOpts{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(page) != 2 || page[0].Name != "Televisions" {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(page))
	}
}

func TestCatalogService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("new item", func(t *testing.T) {
		svc, pub := newTestService(t, nil)
		c, _ := svc.CreateCatalog(ctx, "c", "")

		res, err := svc.AddItem(ctx, c.ID, mustProduct(t, "A", "100", 5))
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if res.Outcome != models.ItemAdded {
			t.Errorf("expected added, got %s", res.Outcome)
		}
		topic, payload := pub.last()
		if topic != domainevents.TopicItemAdded {
			t.Fatalf("expected %s, got %s", domainevents.TopicItemAdded, topic)
		}
		ev := payload.(domainevents.ItemStockEvent)
		if ev.Name != "A" || ev.Price != "100" || ev.Quantity != 5 || ev.Kind != models.KindProduct.String() {
			t.Errorf("unexpected event: %+v", ev)
		}
	})

	t.Run("merge at lower price", func(t *testing.T) {
		svc, pub := newTestService(t, nil)
		a := mustProduct(t, "A", "100", 5)
		c, _ := svc.CreateCatalog(ctx, "c", "", a)

		res, err := svc.AddItem(ctx, c.ID, mustProduct(t, "A", "50", 2))
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if res.Outcome != models.ItemMerged || res.Item != models.Item(a) || res.PriceRaised {
			t.Fatalf("unexpected result: %+v", res)
		}
		if a.Quantity() != 7 || !a.Price().Equal(dec("100")) {
			t.Errorf("expected 7 at 100, got %d at %s", a.Quantity(), a.Price())
		}
		if svc.Registry().Items() != 1 {
			t.Errorf("merge must not be counted, items=%d", svc.Registry().Items())
		}
		if topic, _ := pub.last(); topic != domainevents.TopicItemMerged {
			t.Errorf("expected %s, got %s", domainevents.TopicItemMerged, topic)
		}
	})

	t.Run("zero quantity is rejected", func(t *testing.T) {
		svc, pub := newTestService(t, nil)
		c, _ := svc.CreateCatalog(ctx, "c", "")
		p := mustProduct(t, "A", "100", 1)
		models.Absorb(p, -1, dec("1"), "")

		_, err := svc.AddItem(ctx, c.ID, p)
		if !errors.Is(err, catalogdomain.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
		if c.Len() != 0 {
			t.Error("catalog must be unchanged")
		}
		if topic, _ := pub.last(); topic != domainevents.TopicCatalogCreated {
			t.Errorf("expected no item event, got %s", topic)
		}
	})

	t.Run("unknown catalog", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		_, err := svc.AddItem(ctx, uuid.New(), mustProduct(t, "A", "100", 1))
		if !errors.Is(err, catalogdomain.ErrCatalogNotFound) {
			t.Fatalf("expected ErrCatalogNotFound, got %v", err)
		}
	})
}

func TestCatalogService_ApplyBundle(t *testing.T) {
	ctx := context.Background()

	t.Run("new name appends a product", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		c, _ := svc.CreateCatalog(ctx, "c", "", mustProduct(t, "A", "100", 5))

		res, err := svc.ApplyBundle(ctx, c.ID, domainsvcs.ItemData{Name: "B", Price: dec("200"), Quantity: 3})
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if res.Outcome != models.ItemAdded || c.Len() != 2 {
			t.Fatalf("expected a new entry, got %s with %d items", res.Outcome, c.Len())
		}
		if svc.Registry().Items() != 2 {
			t.Errorf("expected 2 registered items, got %d", svc.Registry().Items())
		}
	})

	t.Run("case-insensitive match merges once", func(t *testing.T) {
		svc, pub := newTestService(t, nil)
		a := mustProduct(t, "Iphone 15", "210000", 8)
		c, _ := svc.CreateCatalog(ctx, "c", "", a)

		res, err := svc.ApplyBundle(ctx, c.ID, domainsvcs.ItemData{
			Name: "IPHONE 15", Description: "newer", Price: dec("220000"), Quantity: 2,
		})
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if res.Outcome != models.ItemMerged || !res.PriceRaised {
			t.Fatalf("unexpected result: %+v", res)
		}
		if c.Len() != 1 || a.Quantity() != 10 || a.Description() != "newer" {
			t.Errorf("unexpected merge: len=%d qty=%d desc=%q", c.Len(), a.Quantity(), a.Description())
		}
		_, payload := pub.last()
		if ev := payload.(domainevents.ItemStockEvent); !ev.PriceRaised || ev.Price != "220000" {
			t.Errorf("unexpected event: %+v", ev)
		}
	})

	t.Run("invalid bundle", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		c, _ := svc.CreateCatalog(ctx, "c", "")

		_, err := svc.ApplyBundle(ctx, c.ID, domainsvcs.ItemData{Name: "A", Price: dec("0"), Quantity: 1})
		if !errors.Is(err, catalogdomain.ErrInvalidItemData) {
			t.Fatalf("expected ErrInvalidItemData, got %v", err)
		}
		if c.Len() != 0 {
			t.Error("catalog must be unchanged")
		}
	})
}

func TestCatalogService_ImportFixtures(t *testing.T) {
	svc, _ := newTestService(t, nil)
	fx := []fixtures.CatalogFixture{
		{
			Name: "Smartphones",
			Items: []domainsvcs.ItemData{
				{Name: "Iphone 15", Price: dec("210000"), Quantity: 8},
				{Name: "Broken", Price: dec("-1"), Quantity: 1},
				{Name: "Sold out", Price: dec("100"), Quantity: 0},
				{Name: "iphone 15", Price: dec("200000"), Quantity: 2},
			},
		},
		{Name: "Empty"},
	}

	catalogs, err := svc.ImportFixtures(context.Background(), fx)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(catalogs) != 2 {
		t.Fatalf("expected 2 catalogs, got %d", len(catalogs))
	}
	phones := catalogs[0]
	if phones.Len() != 1 || phones.TotalQuantity() != 10 {
		t.Errorf("expected one merged entry of 10, got len=%d qty=%d", phones.Len(), phones.TotalQuantity())
	}
	if !catalogs[1].AveragePrice().IsZero() {
		t.Error("empty catalog average must be zero")
	}
}

func TestCatalogService_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t, nil)
	p := mustProduct(t, "Samsung Galaxy S23 Ultra", "180000.0", 5)

	o, err := svc.PlaceOrder(ctx, "My first order", "Smartphone order", p, 2)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !o.TotalPrice().Equal(dec("360000")) {
		t.Errorf("expected 360000, got %s", o.TotalPrice())
	}
	topic, payload := pub.last()
	if topic != domainevents.TopicOrderPlaced {
		t.Fatalf("expected %s, got %s", domainevents.TopicOrderPlaced, topic)
	}
	if ev := payload.(domainevents.OrderPlacedEvent); ev.Total != "360000" || ev.OrderID != o.ID {
		t.Errorf("unexpected event: %+v", ev)
	}

	if _, err := svc.PlaceOrder(ctx, "bad", "", p, 0); !errors.Is(err, catalogdomain.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestCatalogService_ChangePrice(t *testing.T) {
	tests := []struct {
		name      string
		decider   models.PriceDecider
		price     string
		want      models.PriceChange
		wantPrice string
	}{
		{"raise", nil, "150", models.PriceRaised, "150"},
		{"same", nil, "100", models.PriceKept, "100"},
		{"non-positive", models.AlwaysConfirm, "0", models.PriceRejected, "100"},
		{"negative", models.AlwaysConfirm, "-10", models.PriceRejected, "100"},
		{"drop confirmed", models.AlwaysConfirm, "80", models.PriceLowered, "80"},
		{"drop declined", models.NeverConfirm, "80", models.PriceDropDeclined, "100"},
		{"drop without decider", nil, "80", models.PriceDropDeclined, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, pub := newTestService(t, tt.decider)
			p := mustProduct(t, "A", "100", 5)
			c, _ := svc.CreateCatalog(ctx, "c", "", p)

			got, err := svc.ChangePrice(ctx, c.ID, "A", dec(tt.price))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if !p.Price().Equal(dec(tt.wantPrice)) {
				t.Errorf("expected price %s, got %s", tt.wantPrice, p.Price())
			}
			topic, payload := pub.last()
			if topic != domainevents.TopicPriceChanged {
				t.Fatalf("expected %s, got %s", domainevents.TopicPriceChanged, topic)
			}
			if ev := payload.(domainevents.PriceChangedEvent); ev.Outcome != tt.want.String() || ev.From != "100" {
				t.Errorf("unexpected event: %+v", ev)
			}
		})
	}
}

func TestCatalogService_ChangePrice_UnknownItem(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	c, _ := svc.CreateCatalog(ctx, "c", "", mustProduct(t, "A", "100", 5))

	_, err := svc.ChangePrice(ctx, c.ID, "a", dec("10"))
	if !errors.Is(err, catalogdomain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCatalogService_PublishFailureKeepsStateChange(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("bus closed")}
	svc, err := NewCatalogService(memory.NewCatalogRepository(), models.NewRegistry(), nil, pub, logger.Nop())
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}

	c, err := svc.CreateCatalog(ctx, "c", "")
	if err != nil {
		t.Fatalf("publish failure must not fail creation: %v", err)
	}
	if _, err := svc.AddItem(ctx, c.ID, mustProduct(t, "A", "100", 1)); err != nil {
		t.Fatalf("publish failure must not fail insert: %v", err)
	}
	if c.Len() != 1 {
		t.Error("expected the item to be kept")
	}
}

func TestCatalogService_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	c, _ := svc.CreateCatalog(ctx, "c", "")
	_, _ = svc.AddItem(ctx, c.ID, mustProduct(t, "A", "100", 1))
	_, _ = svc.AddItem(ctx, c.ID, mustProduct(t, "A", "100", 1))
	_, _ = svc.AddItem(ctx, c.ID, mustProduct(t, "B", "100", 1))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	if sums["catalog.items.added"] != 2 || sums["catalog.items.merged"] != 1 {
		t.Errorf("unexpected counters: %v", sums)
	}
}

func TestNewPriceDecider(t *testing.T) {
	from, to := dec("100"), dec("50")

	tests := []struct {
		policy  string
		input   string
		want    bool
		wantErr bool
	}{
		{"accept", "", true, false},
		{"reject", "", false, false},
		{"prompt", "y\n", true, false},
		{"prompt", "n\n", false, false},
		{"sometimes", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.policy+" "+strings.TrimSpace(tt.input), func(t *testing.T) {
			var out strings.Builder
			d, err := NewPriceDecider(tt.policy, strings.NewReader(tt.input), &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := d.ConfirmPriceDrop("A", from, to); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
