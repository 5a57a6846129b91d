package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ghuser/storefront/pkg/logger"
	catalogservices "github.com/ghuser/storefront/services/catalog/application/services"
	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
	"github.com/ghuser/storefront/services/catalog/domain/models"
	"github.com/ghuser/storefront/services/catalog/infrastructure/fixtures"
)

// runDemo walks through the catalog: a rejected zero-quantity item, a
// smartphone catalog and its average price, an empty catalog, an order, a
// price drop through the configured decider, and finally the fixtures at
// fixturesPath when one is set.
func runDemo(ctx context.Context, svc *catalogservices.CatalogService, fixturesPath string, out io.Writer) error {
	if _, err := models.NewProduct("Broken phone", "Broken", decimal.NewFromInt(1000), 0); err != nil {
		if !errors.Is(err, catalogdomain.ErrInvalidQuantity) {
			return err
		}
		fmt.Fprintf(out, "Item not created: %v\n", err)
	}

	phones, err := smartphones()
	if err != nil {
		return err
	}
	catalog, err := svc.CreateCatalog(ctx, "Smartphones",
		"Smartphones as a means not only of communication but also of gaining additional functions for convenient life",
		phones...)
	if err != nil {
		return err
	}
	printCatalog(out, catalog)

	empty, err := svc.CreateCatalog(ctx, "Empty category", "No products yet")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Average price of %q: %s\n", empty.Name, empty.AveragePrice().StringFixed(2))

	iphone, _ := catalog.Find("Iphone 15")
	order, err := svc.PlaceOrder(ctx, "My first order", "Smartphone order", iphone, 2)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, order)

	change, err := svc.ChangePrice(ctx, catalog.ID, "Iphone 15", decimal.NewFromInt(200000))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Price change for Iphone 15: %s, now %s %s\n", change, iphone.Price(), models.Currency)
	fmt.Fprintf(out, "Order total is unchanged: %s %s\n", order.TotalPrice(), models.Currency)

	if fixturesPath != "" {
		fx, err := fixtures.LoadFile(fixturesPath)
		if err != nil {
			return err
		}
		imported, err := svc.ImportFixtures(ctx, fx)
		if err != nil {
			return err
		}
		for _, c := range imported {
			printCatalog(out, c)
		}
	}

	reg := svc.Registry()
	fmt.Fprintf(out, "Catalogs created: %d, distinct items: %d\n", reg.Catalogs(), reg.Items())
	return nil
}

func smartphones() ([]models.Item, error) {
	specs := []struct {
		name, description, price string
		quantity                 int
		spec                     models.SmartphoneSpec
	}{
		{"Samsung Galaxy S23 Ultra", "256GB, Gray, 200MP camera", "180000.0", 5,
			models.SmartphoneSpec{Efficiency: 95.5, Model: "S23 Ultra", MemoryGB: 256, Color: "Gray"}},
		{"Iphone 15", "512GB, Gray space", "210000.0", 8,
			models.SmartphoneSpec{Efficiency: 98.2, Model: "15", MemoryGB: 512, Color: "Gray space"}},
		{"Xiaomi Redmi Note 11", "1024GB, Blue", "31000.0", 14,
			models.SmartphoneSpec{Efficiency: 90.3, Model: "Note 11", MemoryGB: 1024, Color: "Blue"}},
	}

	items := make([]models.Item, 0, len(specs))
	for _, s := range specs {
		p, err := models.NewSmartphone(s.name, s.description, decimal.RequireFromString(s.price), s.quantity, s.spec)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}

func printCatalog(out io.Writer, c *models.Catalog) {
	fmt.Fprintln(out, c)
	for line := range c.Items() {
		fmt.Fprintf(out, "  %s\n", line)
	}
	fmt.Fprintf(out, "  Average price: %s %s\n", c.AveragePrice().StringFixed(2), models.Currency)
}

// logMetrics collects the manual reader once and logs every counter total.
func logMetrics(ctx context.Context, log logger.Logger, reader *sdkmetric.ManualReader) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		log.Warn("failed to collect metrics", "error", err)
		return
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			log.Info("metric", "name", m.Name, "total", total)
		}
	}
}
