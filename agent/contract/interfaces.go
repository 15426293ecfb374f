package contract

import "context"

type Specialist interface {
	Definition() SpecialistDefinition
	Run(ctx context.Context, req SpecialistRequest) (SpecialistResponse, error)
}

type Router interface {
	Route(ctx context.Context, req RouteRequest) (RouteDecision, error)
}

type Registry interface {
	Router() Router
	Specialist(agentType AgentType) (Specialist, bool)
	Definition(agentType AgentType) (SpecialistDefinition, bool)
}

type ToolGateway interface {
	Execute(ctx context.Context, agentType AgentType, actx AgentContext, req ToolRequest) (ToolResult, error)
}

// IdentityProvider returns nil, nil for a token it does not recognize.
type IdentityProvider interface {
	GetUser(ctx context.Context, token string) (*UserIdentity, error)
}

type Mailer interface {
	Configured() bool
	Send(ctx context.Context, mail Mail) (string, error)
}
