// Package fixtures reads seed catalogs from YAML documents of the form
//
//	catalogs:
//	  - name: Smartphones
//	    description: Communication devices
//	    items:
//	      - name: Iphone 15
//	        description: 512GB, Gray space
//	        price: "210000.0"
//	        quantity: 8
//
// Prices are decimal strings so they survive without float rounding.
package fixtures

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	domainsvcs "github.com/ghuser/storefront/services/catalog/domain/services"
)

// CatalogFixture is one catalog with the raw item bundles to apply to it.
type CatalogFixture struct {
	Name        string
	Description string
	Items       []domainsvcs.ItemData
}

type fileDoc struct {
	Catalogs []catalogDoc `yaml:"catalogs"`
}

type catalogDoc struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Items       []itemDoc `yaml:"items"`
}

type itemDoc struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Quantity    int    `yaml:"quantity"`
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) ([]CatalogFixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()

	fixtures, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fixtures, nil
}

// Load decodes a fixtures document. Unknown keys are rejected. Item bundles
// are returned unvalidated; the factory validates them when applied.
func Load(r io.Reader) ([]CatalogFixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc fileDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	fixtures := make([]CatalogFixture, 0, len(doc.Catalogs))
	for i, c := range doc.Catalogs {
		if c.Name == "" {
			return nil, fmt.Errorf("catalog %d: name is required", i)
		}
		items := make([]domainsvcs.ItemData, 0, len(c.Items))
		for j, it := range c.Items {
			price, err := decimal.NewFromString(it.Price)
			if err != nil {
				return nil, fmt.Errorf("catalog %q item %d: price %q: %w", c.Name, j, it.Price, err)
			}
			items = append(items, domainsvcs.ItemData{
				Name:        it.Name,
				Description: it.Description,
				Price:       price,
				Quantity:    it.Quantity,
			})
		}
		fixtures = append(fixtures, CatalogFixture{
			Name:        c.Name,
			Description: c.Description,
			Items:       items,
		})
	}
	return fixtures, nil
}
