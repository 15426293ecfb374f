package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TicketStatusOpen = "open"

	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

func (s *BunStore) CreateSupportTicket(ctx context.Context, t *SupportTicket) error {
	if t == nil {
		return ErrNilRecord
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	if _, err := s.db.NewInsert().Model(t).Exec(ctx); err != nil {
		return fmt.Errorf("create support ticket: %w", err)
	}
	return nil
}

func (s *BunStore) ListSupportTickets(ctx context.Context, userID string) ([]SupportTicket, error) {
	var out []SupportTicket
	err := s.db.NewSelect().
		Model(&out).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list support tickets: %w", err)
	}
	return out, nil
}
