package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (s *BunStore) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := s.db.NewSelect().Model(&out).Order("category ASC", "name ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// FindProductsByName returns products whose name, category or description
// contains the query or any of its words (longer than two characters),
// case-insensitively and in catalog order. A blank query lists everything.
func (s *BunStore) FindProductsByName(ctx context.Context, query string) ([]Product, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return s.ListProducts(ctx)
	}

	var out []Product
	err := s.db.NewSelect().
		Model(&out).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, term := range terms {
				pattern := "%" + term + "%"
				q = q.WhereOr("LOWER(name) LIKE ?", pattern).
					WhereOr("LOWER(category) LIKE ?", pattern).
					WhereOr("LOWER(description) LIKE ?", pattern)
			}
			return q
		}).
		Order("category ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return out, nil
}

func searchTerms(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	terms := []string{q}
	for _, w := range strings.Fields(q) {
		if len(w) > 2 && w != q {
			terms = append(terms, w)
		}
	}
	return terms
}

func (s *BunStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	p := new(Product)
	if err := s.db.NewSelect().Model(p).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *BunStore) GetCartItems(ctx context.Context, userID string) ([]CartItem, error) {
	var out []CartItem
	err := s.db.NewSelect().
		Model(&out).
		Relation("Product").
		Where("ci.user_id = ?", userID).
		Order("ci.added_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	return out, nil
}

func (s *BunStore) GetCartItem(ctx context.Context, userID, productID string) (*CartItem, error) {
	item := new(CartItem)
	err := s.db.NewSelect().
		Model(item).
		Relation("Product").
		Where("ci.user_id = ?", userID).
		Where("ci.product_id = ?", productID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "cart item")
	}
	return item, nil
}

// UpsertCartItem writes the line for (user, product) with the given quantity.
func (s *BunStore) UpsertCartItem(ctx context.Context, item *CartItem) error {
	if item == nil {
		return ErrNilRecord
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}

	_, err := s.db.NewInsert().
		Model(item).
		On("CONFLICT (user_id, product_id) DO UPDATE").
		Set("quantity = EXCLUDED.quantity").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (s *BunStore) DeleteCartItem(ctx context.Context, userID, productID string) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*CartItem)(nil)).
		Where("user_id = ?", userID).
		Where("product_id = ?", productID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *BunStore) DeleteCartItems(ctx context.Context, userID string) (int, error) {
	res, err := s.db.NewDelete().Model((*CartItem)(nil)).Where("user_id = ?", userID).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete cart items: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
