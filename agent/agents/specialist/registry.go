package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	llmx "github.com/tanpawarit/agentic-services/agent/llm"
	promptx "github.com/tanpawarit/agentic-services/agent/prompt"
)

// Toolbox is the part of the tool registry the agents need.
type Toolbox interface {
	contractx.ToolGateway
	InfosFor(agentType contractx.AgentType) []*schema.ToolInfo
	Toolset(agentType contractx.AgentType) []string
}

// ModelSource builds the chat model for each agent.
type ModelSource interface {
	ModelFor(agentType contractx.AgentType) string
	New(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error)
}

type openRouterModels struct {
	cfg llmx.Config
}

// OpenRouterModels builds every agent model from cfg, honouring per-agent
// model and temperature overrides.
func OpenRouterModels(cfg llmx.Config) ModelSource {
	return openRouterModels{cfg: cfg}
}

func (m openRouterModels) ModelFor(agentType contractx.AgentType) string {
	return m.cfg.ModelFor(agentType)
}

func (m openRouterModels) New(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
	conf := m.cfg.OpenRouterFor(agentType)
	return conf.New(ctx)
}

type role struct {
	roleName         string
	displayName      string
	sessionAgentType string
}

var roles = map[contractx.AgentType]role{
	contractx.AgentTypeOrchestrator: {"Routes each conversation to one specialist", "Main Orchestrator", "orchestrator"},
	contractx.AgentTypeSales:        {"Product expert for browsing, cart and checkout", "Sales Agent", "sales_agent"},
	contractx.AgentTypeSupport:      {"Help desk for orders, returns and troubleshooting", "Customer Support Agent", "customer_support"},
	contractx.AgentTypeNavigator:    {"Site guide for finding pages and content", "Website Navigator", "website_navigator"},
	contractx.AgentTypeAssistant:    {"Productivity helper for tasks and email", "Personal Assistant", "personal_assistant"},
}

// Definitions binds every agent type to its instructions, tool subset and model.
func Definitions(prompts promptx.PromptSet, tools Toolbox, models ModelSource) (map[contractx.AgentType]contractx.SpecialistDefinition, error) {
	out := make(map[contractx.AgentType]contractx.SpecialistDefinition, len(roles))
	for agentType, r := range roles {
		instructions, err := prompts.For(agentType)
		if err != nil {
			return nil, err
		}
		out[agentType] = contractx.SpecialistDefinition{
			AgentType:        agentType,
			RoleName:         r.roleName,
			DisplayName:      r.displayName,
			SessionAgentType: r.sessionAgentType,
			Instructions:     instructions,
			Tools:            tools.Toolset(agentType),
			Model:            models.ModelFor(agentType),
		}
	}
	return out, nil
}

type registryImpl struct {
	router      contractx.Router
	specialists map[contractx.AgentType]contractx.Specialist
	defs        map[contractx.AgentType]contractx.SpecialistDefinition
}

var _ contractx.Registry = (*registryImpl)(nil)

func (r *registryImpl) Router() contractx.Router {
	return r.router
}

func (r *registryImpl) Specialist(agentType contractx.AgentType) (contractx.Specialist, bool) {
	s, ok := r.specialists[agentType]
	return s, ok
}

func (r *registryImpl) Definition(agentType contractx.AgentType) (contractx.SpecialistDefinition, bool) {
	d, ok := r.defs[agentType]
	return d, ok
}

func NewRegistry(ctx context.Context, models ModelSource, prompts promptx.PromptSet, tools Toolbox, cfg Config) (contractx.Registry, error) {
	if models == nil || tools == nil {
		return nil, fmt.Errorf("%w: model source and toolbox are required", contractx.ErrValidation)
	}

	defs, err := Definitions(prompts, tools, models)
	if err != nil {
		return nil, err
	}

	reg := &registryImpl{
		specialists: make(map[contractx.AgentType]contractx.Specialist, len(contractx.SpecialistTypes)),
		defs:        defs,
	}

	for _, agentType := range contractx.SpecialistTypes {
		chatModel, err := models.New(ctx, agentType)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
		}
		s, err := newSpecialist(ctx, defs[agentType], chatModel, tools.InfosFor(agentType), tools, cfg)
		if err != nil {
			return nil, err
		}
		reg.specialists[agentType] = s
	}

	routerModel, err := models.New(ctx, contractx.AgentTypeOrchestrator)
	if err != nil {
		return nil, fmt.Errorf("%w: create orchestrator model: %v", contractx.ErrModelInvoke, err)
	}
	reg.router, err = newRouter(ctx, defs[contractx.AgentTypeOrchestrator].Instructions, routerModel,
		tools.InfosFor(contractx.AgentTypeOrchestrator), tools, cfg)
	if err != nil {
		return nil, err
	}

	return reg, nil
}
