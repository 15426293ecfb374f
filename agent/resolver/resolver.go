package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

type Store interface {
	storex.UserStore
	storex.SessionStore
}

// Resolver turns a bearer credential into the per-turn AgentContext.
type Resolver struct {
	identity contractx.IdentityProvider
	store    Store
	now      func() time.Time
}

type Option func(*Resolver)

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// New returns a Resolver. A nil identity provider makes every caller anonymous.
func New(identity contractx.IdentityProvider, store Store, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("resolver store is required")
	}
	r := &Resolver{identity: identity, store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve never fails: missing, invalid or unverifiable tokens yield an
// anonymous context.
func (r *Resolver) Resolve(ctx context.Context, bearerToken string) contractx.AgentContext {
	user, err := r.Authenticate(ctx, bearerToken)
	if err != nil {
		log.Warn().Err(err).Msg("identity lookup failed, continuing anonymously")
		return contractx.AgentContext{}
	}
	if user == nil {
		return contractx.AgentContext{}
	}
	id := user.ID
	return contractx.AgentContext{UserID: &id}
}

// Authenticate maps the token to the local user row, creating it on first
// sight and refreshing its last-active time. It returns nil, nil for
// anonymous callers.
func (r *Resolver) Authenticate(ctx context.Context, bearerToken string) (*storex.User, error) {
	token := strings.TrimSpace(bearerToken)
	if token == "" || r.identity == nil {
		return nil, nil
	}

	identity, err := r.identity.GetUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	if identity == nil || strings.TrimSpace(identity.ExternalID) == "" {
		return nil, nil
	}

	user, err := r.store.UpsertUser(ctx, storex.UpsertUserInput{
		ExternalID:  identity.ExternalID,
		Email:       identity.Email,
		FullName:    identity.FullName,
		IsAnonymous: identity.IsAnonymous,
		SeenAt:      r.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

// EnsureSession attaches a conversation session to an authenticated
// context. A supplied session id is reused only when it exists and belongs
// to the caller; otherwise a new session is created for def.
func (r *Resolver) EnsureSession(
	ctx context.Context,
	actx contractx.AgentContext,
	sessionID string,
	def contractx.SpecialistDefinition,
) (contractx.AgentContext, error) {
	if !actx.Authenticated() {
		actx.SessionID = nil
		return actx, nil
	}

	if id := strings.TrimSpace(sessionID); id != "" {
		sess, err := r.store.GetSession(ctx, id)
		switch {
		case err == nil && sess.UserID == actx.User():
			actx.SessionID = &sess.ID
			return actx, nil
		case err == nil:
			log.Warn().Str("session_id", id).Str("user_id", actx.User()).Msg("session belongs to another user, starting a new one")
		case errors.Is(err, storex.ErrNotFound):
			log.Info().Str("session_id", id).Msg("session not found, starting a new one")
		default:
			return actx, fmt.Errorf("get session: %w", err)
		}
	}

	sess := &storex.Session{
		UserID:           actx.User(),
		AgentType:        def.SessionAgentType,
		AgentDisplayName: def.DisplayName,
		CreatedAt:        r.now().UTC(),
	}
	if err := r.store.CreateSession(ctx, sess); err != nil {
		return actx, fmt.Errorf("create session: %w", err)
	}
	log.Info().Str("session_id", sess.ID).Str("user_id", actx.User()).Str("agent_type", string(def.AgentType)).Msg("session created")

	actx.SessionID = &sess.ID
	return actx, nil
}
