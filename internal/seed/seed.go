// Package seed loads a catalog from a YAML menu file.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Menu is the root of a seed file
type Menu struct {
	Products []Item `yaml:"products"`
}

// Item is one product of the menu. Price accepts locale formatted strings such as "12.900,50".
type Item struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Stock       int    `yaml:"stock"`
	MinStock    int    `yaml:"min_stock"`
	ImageURL    string `yaml:"image_url"`
}

// Result counts what Apply did
type Result struct {
	Created int
	Updated int
}

func Load(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Menu, error) {
	var menu Menu
	if err := yaml.Unmarshal(data, &menu); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, it := range menu.Products {
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("product %d has no name", i+1)
		}
		if _, err := model.ParseLocaleNumber(it.Price); err != nil {
			return nil, fmt.Errorf("product %q: %w", it.Name, err)
		}
	}
	return &menu, nil
}

// Apply upserts every menu item by name, ignoring case
func Apply(ctx context.Context, catalog *service.CatalogService, menu *Menu) (Result, error) {
	log := logger.FromContext(ctx)
	var res Result

	existing, err := catalog.List(ctx, "")
	if err != nil {
		return res, err
	}
	byName := make(map[string]string, len(existing))
	for _, p := range existing {
		byName[strings.ToLower(p.Name)] = p.ID
	}

	for _, it := range menu.Products {
		price, _ := model.ParseLocaleNumber(it.Price)
		name := strings.TrimSpace(it.Name)
		stock, minStock := it.Stock, it.MinStock
		in := service.ProductInput{
			Name:        &name,
			Description: &it.Description,
			Price:       &price,
			Stock:       &stock,
			MinStock:    &minStock,
			ImageURL:    &it.ImageURL,
		}

		if id, ok := byName[strings.ToLower(name)]; ok {
			if _, err := catalog.Update(ctx, id, in); err != nil {
				return res, fmt.Errorf("update %q: %w", name, err)
			}
			res.Updated++
			continue
		}
		p, err := catalog.Create(ctx, in)
		if err != nil {
			return res, fmt.Errorf("create %q: %w", name, err)
		}
		byName[strings.ToLower(name)] = p.ID
		res.Created++
	}

	log.Info("Catalog seeded", zap.Int("created", res.Created), zap.Int("updated", res.Updated))
	return res, nil
}
