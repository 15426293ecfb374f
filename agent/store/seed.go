package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed seed/demo.yaml
var demoSeed []byte

// seedNamespace keeps seeded ids stable across runs so Seed can be repeated.
var seedNamespace = uuid.MustParse("6f1c2a8e-4b7d-4e55-9a60-2f8d3c1b7e42")

type seedFile struct {
	Products []struct {
		Key         string  `yaml:"key"`
		Name        string  `yaml:"name"`
		Category    string  `yaml:"category"`
		Description string  `yaml:"description"`
		Price       float64 `yaml:"price"`
		Stock       int     `yaml:"stock"`
	} `yaml:"products"`

	KBCategories []struct {
		Slug     string `yaml:"slug"`
		Name     string `yaml:"name"`
		Icon     string `yaml:"icon"`
		Articles []struct {
			Key         string `yaml:"key"`
			Title       string `yaml:"title"`
			Description string `yaml:"description"`
			Content     string `yaml:"content"`
		} `yaml:"articles"`
	} `yaml:"kb_categories"`

	NavModules []struct {
		Slug        string `yaml:"slug"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Paths       []struct {
			Route       string   `yaml:"route"`
			Title       string   `yaml:"title"`
			Description string   `yaml:"description"`
			Content     string   `yaml:"content"`
			Keywords    []string `yaml:"keywords"`
			Steps       []string `yaml:"steps"`
			Related     []string `yaml:"related"`
		} `yaml:"paths"`
	} `yaml:"nav_modules"`
}

// SeedData is the decoded demo catalog.
type SeedData struct {
	Products     []Product
	KBCategories []KBCategory
	KBArticles   []KBArticle
	NavModules   []NavModule
	NavPaths     []NavPath
}

func seedID(kind, key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key)).String()
}

// LoadSeed decodes the embedded demo catalog.
func LoadSeed() (*SeedData, error) {
	var raw seedFile
	if err := yaml.Unmarshal(demoSeed, &raw); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	now := time.Now().UTC()
	out := &SeedData{}
	for _, p := range raw.Products {
		out.Products = append(out.Products, Product{
			ID:            seedID("product", p.Key),
			Name:          p.Name,
			Category:      p.Category,
			Description:   p.Description,
			Price:         p.Price,
			StockQuantity: p.Stock,
			CreatedAt:     now,
		})
	}
	for ci, c := range raw.KBCategories {
		cat := KBCategory{
			ID:           seedID("kb_category", c.Slug),
			Name:         c.Name,
			Slug:         c.Slug,
			IconName:     c.Icon,
			DisplayOrder: ci + 1,
		}
		out.KBCategories = append(out.KBCategories, cat)
		for ai, a := range c.Articles {
			out.KBArticles = append(out.KBArticles, KBArticle{
				ID:           seedID("kb_article", a.Key),
				CategoryID:   cat.ID,
				Title:        a.Title,
				Description:  a.Description,
				Content:      a.Content,
				DisplayOrder: ai + 1,
				IsActive:     true,
			})
		}
	}
	for mi, m := range raw.NavModules {
		mod := NavModule{
			ID:           seedID("nav_module", m.Slug),
			Name:         m.Name,
			Slug:         m.Slug,
			Description:  m.Description,
			DisplayOrder: mi + 1,
		}
		out.NavModules = append(out.NavModules, mod)
		for pi, p := range m.Paths {
			out.NavPaths = append(out.NavPaths, NavPath{
				ID:            seedID("nav_path", p.Route),
				ModuleID:      mod.ID,
				Title:         p.Title,
				Route:         p.Route,
				Description:   p.Description,
				Content:       p.Content,
				Keywords:      p.Keywords,
				Steps:         p.Steps,
				RelatedRoutes: p.Related,
				DisplayOrder:  pi + 1,
			})
		}
	}
	return out, nil
}

// Seed inserts the demo catalog. Rows that already exist are left untouched.
func (s *BunStore) Seed(ctx context.Context) error {
	data, err := LoadSeed()
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(ctx context.Context, tx *BunStore) error {
		batches := []struct {
			name  string
			model any
			n     int
		}{
			{"products", &data.Products, len(data.Products)},
			{"kb_categories", &data.KBCategories, len(data.KBCategories)},
			{"kb_articles", &data.KBArticles, len(data.KBArticles)},
			{"nav_modules", &data.NavModules, len(data.NavModules)},
			{"nav_paths", &data.NavPaths, len(data.NavPaths)},
		}
		for _, b := range batches {
			if b.n == 0 {
				continue
			}
			if _, err := tx.db.NewInsert().Model(b.model).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("seed %s: %w", b.name, err)
			}
			log.Debug().Str("table", b.name).Int("rows", b.n).Msg("seeded")
		}
		return nil
	})
}

// SeedIfEmpty seeds only when the product catalog has no rows.
func (s *BunStore) SeedIfEmpty(ctx context.Context) error {
	n, err := s.db.NewSelect().Model((*Product)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return nil
	}
	return s.Seed(ctx)
}
