package store

import (
	"context"
	"fmt"
)

// ListKBArticles returns active articles with their category, ordered by
// category then article display order.
func (s *BunStore) ListKBArticles(ctx context.Context) ([]KBArticle, error) {
	var out []KBArticle
	err := s.db.NewSelect().
		Model(&out).
		Relation("Category").
		Where("kba.is_active = ?", true).
		OrderExpr(`"category"."display_order" ASC`).
		OrderExpr("kba.display_order ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kb articles: %w", err)
	}
	return out, nil
}

func (s *BunStore) ListNavPaths(ctx context.Context) ([]NavPath, error) {
	var out []NavPath
	err := s.db.NewSelect().
		Model(&out).
		Relation("Module").
		OrderExpr(`"module"."display_order" ASC`).
		OrderExpr("np.display_order ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nav paths: %w", err)
	}
	return out, nil
}
