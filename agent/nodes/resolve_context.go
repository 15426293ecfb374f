package orchestratornode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

func ResolveContext(ctx context.Context, in *GraphState, resolver ContextResolver) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Context = resolver.Resolve(ctx, in.Req.BearerToken)
	return in, nil
}

// EnsureSession is best-effort: on failure the turn continues without
// persistence.
func EnsureSession(ctx context.Context, in *GraphState, resolver ContextResolver, timeout time.Duration) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if !in.Context.Authenticated() {
		in.Context.SessionID = nil
		return in, nil
	}

	ctx, cancel := bounded(ctx, timeout)
	defer cancel()

	actx, err := resolver.EnsureSession(ctx, in.Context, in.Req.SessionID, in.Definition)
	if err != nil {
		log.Error().Err(err).Str("user_id", in.Context.User()).Msg("ensure session failed, continuing without persistence")
		in.Context.SessionID = nil
		return in, nil
	}
	in.Context = actx
	return in, nil
}
