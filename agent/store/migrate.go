package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var models = []any{
	(*User)(nil),
	(*Session)(nil),
	(*Message)(nil),
	(*Product)(nil),
	(*CartItem)(nil),
	(*Invoice)(nil),
	(*InvoiceItem)(nil),
	(*Task)(nil),
	(*AuditEntry)(nil),
	(*SupportTicket)(nil),
	(*KBCategory)(nil),
	(*KBArticle)(nil),
	(*NavModule)(nil),
	(*NavPath)(nil),
}

type index struct {
	name    string
	model   any
	columns []string
	unique  bool
}

var indexes = []index{
	{name: "messages_session_sequence_uq", model: (*Message)(nil), columns: []string{"session_id", "sequence_number"}, unique: true},
	{name: "cart_items_user_product_uq", model: (*CartItem)(nil), columns: []string{"user_id", "product_id"}, unique: true},
	{name: "chat_sessions_user_idx", model: (*Session)(nil), columns: []string{"user_id", "updated_at"}},
	{name: "agent_tasks_user_idx", model: (*Task)(nil), columns: []string{"user_id", "status"}},
	{name: "agent_actions_task_idx", model: (*AuditEntry)(nil), columns: []string{"user_id", "task_id"}},
	{name: "invoices_user_idx", model: (*Invoice)(nil), columns: []string{"user_id"}},
	{name: "support_tickets_user_idx", model: (*SupportTicket)(nil), columns: []string{"user_id"}},
}

// Migrate creates every table and index that does not exist yet.
func (s *BunStore) Migrate(ctx context.Context) error {
	return s.inTx(ctx, func(ctx context.Context, tx *BunStore) error {
		for _, model := range models {
			if _, err := tx.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("create table %T: %w", model, err)
			}
		}
		for _, idx := range indexes {
			q := tx.db.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				Column(idx.columns...).
				IfNotExists()
			if idx.unique {
				q = q.Unique()
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("create index %s: %w", idx.name, err)
			}
		}
		log.Info().Int("tables", len(models)).Int("indexes", len(indexes)).Msg("store migrated")
		return nil
	})
}
