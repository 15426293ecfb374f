package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

type queryLogHook struct{}

var _ bun.QueryHook = queryLogHook{}

func (queryLogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (queryLogHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		log.Warn().
			Err(event.Err).
			Str("query", event.Query).
			Dur("duration", time.Since(event.StartTime)).
			Msg("store: query failed")
		return
	}
	log.Debug().
		Str("query", event.Query).
		Dur("duration", time.Since(event.StartTime)).
		Msg("store: query")
}
