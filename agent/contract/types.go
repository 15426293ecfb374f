package contract

import (
	"encoding/json"
	"strings"
)

type AgentType string

const (
	AgentTypeOrchestrator AgentType = "orchestrator"
	AgentTypeSales        AgentType = "sales"
	AgentTypeSupport      AgentType = "support"
	AgentTypeNavigator    AgentType = "navigator"
	AgentTypeAssistant    AgentType = "assistant"
)

// SpecialistTypes lists the route keys accepted by direct mode.
var SpecialistTypes = []AgentType{
	AgentTypeSales,
	AgentTypeSupport,
	AgentTypeNavigator,
	AgentTypeAssistant,
}

// ParseAgentType maps a route key to a specialist type. The empty key selects
// intent-based routing and returns AgentTypeOrchestrator.
func ParseAgentType(raw string) (AgentType, bool) {
	key := AgentType(strings.ToLower(strings.TrimSpace(raw)))
	if key == "" {
		return AgentTypeOrchestrator, true
	}
	for _, t := range SpecialistTypes {
		if t == key {
			return t, true
		}
	}
	return "", false
}

// AgentContext is the per-turn identity parameter threaded into every tool call.
type AgentContext struct {
	UserID    *string `json:"user_id"`
	SessionID *string `json:"session_id"`
}

func (c AgentContext) Authenticated() bool {
	return c.UserID != nil && strings.TrimSpace(*c.UserID) != ""
}

func (c AgentContext) User() string {
	if c.UserID == nil {
		return ""
	}
	return *c.UserID
}

func (c AgentContext) Session() string {
	if c.SessionID == nil {
		return ""
	}
	return *c.SessionID
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	AgentType   string        `json:"agentType"`
	SessionID   string        `json:"sessionId,omitempty"`
	BearerToken string        `json:"-"`
}

type ChatResponse struct {
	Response  string  `json:"response"`
	SessionID *string `json:"sessionId"`
}

// SpecialistDefinition binds a role to its instructions, tool subset and model.
type SpecialistDefinition struct {
	AgentType        AgentType `json:"agent_type"`
	RoleName         string    `json:"role_name"`
	DisplayName      string    `json:"display_name"`
	SessionAgentType string    `json:"session_agent_type"`
	Instructions     string    `json:"-"`
	Tools            []string  `json:"tools"`
	Model            string    `json:"model"`
}

type SpecialistRequest struct {
	Input   string       `json:"input"`
	Context AgentContext `json:"context"`
}

type SpecialistResponse struct {
	Message   string           `json:"message"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
}

type RouteRequest struct {
	Input string `json:"input"`
}

// RouteDecision names the specialist to hand off to. A zero AgentType means
// the router answered with a clarifying question in Reply.
type RouteDecision struct {
	AgentType AgentType `json:"agent_type,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Reply     string    `json:"reply,omitempty"`
}

func (d RouteDecision) HandedOff() bool {
	return d.AgentType != ""
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolCallRecord struct {
	Tool    string `json:"tool"`
	Success bool   `json:"success"`
	Blocked bool   `json:"blocked,omitempty"`
}

// ToolResult is the envelope every tool returns, on success and on failure.
type ToolResult struct {
	Tool    string         `json:"-"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"-"`
}

// Payload flattens the envelope into the object handed back to the model.
func (r ToolResult) Payload() map[string]any {
	out := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		out[k] = v
	}
	out["success"] = r.Success
	out["message"] = r.Message
	return out
}

func (r ToolResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Payload())
}

type UserIdentity struct {
	ExternalID  string `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type Mail struct {
	FromName string
	To       string
	Subject  string
	Text     string
	HTML     string
}
