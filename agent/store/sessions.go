package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *BunStore) CreateSession(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrNilRecord
	}
	now := time.Now().UTC()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}
	sess.IsActive = true

	if _, err := s.db.NewInsert().Model(sess).Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *BunStore) GetSession(ctx context.Context, id string) (*Session, error) {
	sess := new(Session)
	if err := s.db.NewSelect().Model(sess).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err, "session")
	}
	return sess, nil
}

func (s *BunStore) UpdateSessionMetadata(ctx context.Context, id string, meta SessionMetadata) error {
	at := meta.LastMessageAt.UTC()
	res, err := s.db.NewUpdate().
		Model((*Session)(nil)).
		Set("last_user_message = ?", meta.LastUserMessage).
		Set("last_ai_message = ?", meta.LastAIMessage).
		Set("last_message_at = ?", at).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session metadata: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return nil
}

func (s *BunStore) ListSessions(ctx context.Context, userID string, limit int) ([]Session, error) {
	var out []Session
	q := s.db.NewSelect().Model(&out).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// AppendMessage assigns the next sequence number from the session counter in
// the same transaction as the insert, so concurrent appends never collide.
func (s *BunStore) AppendMessage(ctx context.Context, in NewMessage) (*Message, error) {
	createdAt := in.CreatedAt.UTC()
	if in.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var out *Message
	err := s.inTx(ctx, func(ctx context.Context, tx *BunStore) error {
		res, err := tx.db.NewUpdate().
			Model((*Session)(nil)).
			Set("message_count = message_count + 1").
			Where("id = ?", in.SessionID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("bump message counter: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: session %s", ErrNotFound, in.SessionID)
		}

		var seq int
		if err := tx.db.NewSelect().
			Model((*Session)(nil)).
			Column("message_count").
			Where("id = ?", in.SessionID).
			Scan(ctx, &seq); err != nil {
			return fmt.Errorf("read message counter: %w", err)
		}

		msg := &Message{
			ID:             uuid.NewString(),
			SessionID:      in.SessionID,
			UserID:         in.UserID,
			Role:           in.Role,
			Content:        in.Content,
			SequenceNumber: seq,
			CreatedAt:      createdAt,
		}
		if _, err := tx.db.NewInsert().Model(msg).Exec(ctx); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		out = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BunStore) CountMessages(ctx context.Context, sessionID string) (int, error) {
	n, err := s.db.NewSelect().Model((*Message)(nil)).Where("session_id = ?", sessionID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func (s *BunStore) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	var out []Message
	err := s.db.NewSelect().
		Model(&out).
		Where("session_id = ?", sessionID).
		Order("sequence_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}
