package tool

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

var toolNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// Handler executes a tool whose arguments have already been validated.
type Handler func(ctx context.Context, actx contractx.AgentContext, args Args) contractx.ToolResult

// Tool is one named operation the model may call. Every parameter is
// required; "not applicable" is expressed with an empty string.
type Tool struct {
	Name   string
	Desc   string
	Params map[string]*schema.ParameterInfo

	// RequiresAuth makes the registry return AuthMessage without calling
	// Handler when the caller has no user id.
	RequiresAuth bool
	AuthMessage  string

	Handler Handler
}

func (t *Tool) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: tool is nil", ErrInvalidTool)
	}
	if !toolNamePattern.MatchString(t.Name) {
		return fmt.Errorf("%w: name %q must be snake_case", ErrInvalidTool, t.Name)
	}
	if strings.TrimSpace(t.Desc) == "" {
		return fmt.Errorf("%w: tool=%s has no description", ErrInvalidTool, t.Name)
	}
	if t.Handler == nil {
		return fmt.Errorf("%w: tool=%s has no handler", ErrInvalidTool, t.Name)
	}
	for name, p := range t.Params {
		if p == nil {
			return fmt.Errorf("%w: tool=%s param=%s is nil", ErrInvalidTool, t.Name, name)
		}
		if !p.Required {
			return fmt.Errorf("%w: tool=%s param=%s must be required", ErrInvalidTool, t.Name, name)
		}
	}
	return nil
}

func (t *Tool) Info() *schema.ToolInfo {
	params := t.Params
	if params == nil {
		params = map[string]*schema.ParameterInfo{}
	}
	return &schema.ToolInfo{
		Name:        t.Name,
		Desc:        t.Desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

func (t *Tool) paramNames() []string {
	names := make([]string, 0, len(t.Params))
	for name := range t.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Args holds decoded tool arguments. Accessors assume validation passed.
type Args map[string]any

func (a Args) String(key string) string {
	v, _ := a[key].(string)
	return strings.TrimSpace(v)
}

func (a Args) Int(key string) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (a Args) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

func Ok(tool, message string, data map[string]any) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Success: true, Message: message, Data: data}
}

func Fail(tool, message string) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Success: false, Message: message}
}

func FailWith(tool, message string, data map[string]any) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Success: false, Message: message, Data: data}
}

func formatPrice(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
