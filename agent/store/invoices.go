package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	InvoiceStatusPaid  = "paid"
	InvoiceStatusDraft = "draft"
	InvoiceStatusVoid  = "void"
)

// NextInvoiceNumber must be called inside the transaction that inserts the
// invoice; the unique index on invoice_number rejects a concurrent duplicate.
func (s *BunStore) NextInvoiceNumber(ctx context.Context) (int64, error) {
	var last int64
	err := s.db.NewSelect().
		Model((*Invoice)(nil)).
		ColumnExpr("COALESCE(MAX(invoice_number), 0)").
		Scan(ctx, &last)
	if err != nil {
		return 0, fmt.Errorf("next invoice number: %w", err)
	}
	return last + 1, nil
}

func (s *BunStore) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if inv == nil {
		return ErrNilRecord
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(inv).Exec(ctx); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (s *BunStore) CreateInvoiceItems(ctx context.Context, items []InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	if _, err := s.db.NewInsert().Model(&items).Exec(ctx); err != nil {
		return fmt.Errorf("create invoice items: %w", err)
	}
	return nil
}

func (s *BunStore) ListInvoices(ctx context.Context, userID string) ([]Invoice, error) {
	var out []Invoice
	err := s.db.NewSelect().
		Model(&out).
		Relation("Items").
		Where("inv.user_id = ?", userID).
		Order("inv.invoice_number DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}
