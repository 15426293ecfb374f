package tool

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

const (
	ToolGetAllProducts = "get_all_products"
	ToolSearchProduct  = "search_product"
	ToolAddToCart      = "add_to_cart"
	ToolRemoveFromCart = "remove_from_cart"
	ToolClearCart      = "clear_cart"
	ToolCheckout       = "checkout"

	ToolLoadKnowledgeBase   = "load_knowledge_base"
	ToolCreateSupportTicket = "create_support_ticket"

	ToolSearchNavigation = "search_navigation"
	ToolGetPageContent   = "get_page_content"
	ToolFindRelatedPages = "find_related_pages"

	ToolFetchTasks = "fetch_tasks"
	ToolManageTask = "manage_task"
	ToolSendEmail  = "send_email"
)

// Deps are the collaborators tool handlers talk to.
type Deps struct {
	Store  storex.Store
	Mailer contractx.Mailer
	Now    func() time.Time
}

type toolkit struct {
	store  storex.Store
	mailer contractx.Mailer
	now    func() time.Time
}

// NewCatalog registers every domain tool plus the orchestrator handoff tools
// and binds each agent type to its toolset.
func NewCatalog(deps Deps, opts ...RegistryOption) (*Registry, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: tool catalog requires a store", ErrInvalidTool)
	}
	k := &toolkit{store: deps.Store, mailer: deps.Mailer, now: deps.Now}
	if k.now == nil {
		k.now = time.Now
	}

	r := NewRegistry(opts...)
	sets := []struct {
		agentType contractx.AgentType
		tools     []*Tool
	}{
		{contractx.AgentTypeSales, k.salesTools()},
		{contractx.AgentTypeSupport, k.supportTools()},
		{contractx.AgentTypeNavigator, k.navigatorTools()},
		{contractx.AgentTypeAssistant, k.assistantTools()},
		{contractx.AgentTypeOrchestrator, handoffTools()},
	}
	for _, set := range sets {
		names := make([]string, 0, len(set.tools))
		for _, t := range set.tools {
			if err := r.Register(t); err != nil {
				return nil, err
			}
			names = append(names, t.Name)
		}
		if err := r.Bind(set.agentType, names...); err != nil {
			return nil, err
		}
	}
	return r, nil
}
