package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const UserStatusRegistered = "registered"

func (s *BunStore) GetUserByExternalID(ctx context.Context, externalID string) (*User, error) {
	u := new(User)
	err := s.db.NewSelect().Model(u).Where("auth_user_id = ?", externalID).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *BunStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	u := new(User)
	err := s.db.NewSelect().Model(u).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// UpsertUser maps one external identity to exactly one local user row and
// refreshes its profile and last-active timestamp.
func (s *BunStore) UpsertUser(ctx context.Context, in UpsertUserInput) (*User, error) {
	externalID := strings.TrimSpace(in.ExternalID)
	if externalID == "" {
		return nil, fmt.Errorf("upsert user: external id is required")
	}
	seenAt := in.SeenAt.UTC()
	if seenAt.IsZero() {
		seenAt = time.Now().UTC()
	}

	u := &User{
		ID:           uuid.NewString(),
		AuthUserID:   externalID,
		Email:        strings.TrimSpace(in.Email),
		FullName:     strings.TrimSpace(in.FullName),
		IsAnonymous:  in.IsAnonymous,
		UserStatus:   UserStatusRegistered,
		LastActiveAt: seenAt,
		CreatedAt:    seenAt,
	}

	_, err := s.db.NewInsert().
		Model(u).
		On("CONFLICT (auth_user_id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("full_name = EXCLUDED.full_name").
		Set("is_anonymous = EXCLUDED.is_anonymous").
		Set("user_status = EXCLUDED.user_status").
		Set("last_active_at = EXCLUDED.last_active_at").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return s.GetUserByExternalID(ctx, externalID)
}
