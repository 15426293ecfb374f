package tool

import (
	"fmt"
	"math"
	"slices"

	"github.com/cloudwego/eino/schema"
)

// validateArgs checks decoded arguments against the declared parameters:
// every declared parameter present, no undeclared keys, JSON types match,
// enum values respected.
func validateArgs(t *Tool, args map[string]any) error {
	for key := range args {
		if _, ok := t.Params[key]; !ok {
			return fmt.Errorf("%w: tool=%s arg=%s", ErrUnknownArg, t.Name, key)
		}
	}

	for _, name := range t.paramNames() {
		p := t.Params[name]
		v, ok := args[name]
		if !ok || v == nil {
			return fmt.Errorf("%w: tool=%s arg=%s", ErrMissingRequiredArg, t.Name, name)
		}
		if err := checkType(p, v); err != nil {
			return fmt.Errorf("%w: tool=%s arg=%s: %v", ErrInvalidArgType, t.Name, name, err)
		}
		if len(p.Enum) > 0 {
			s, _ := v.(string)
			if !slices.Contains(p.Enum, s) {
				return fmt.Errorf("%w: tool=%s arg=%s: %q not in %v", ErrInvalidArgType, t.Name, name, s, p.Enum)
			}
		}
	}
	return nil
}

func checkType(p *schema.ParameterInfo, v any) error {
	switch p.Type {
	case schema.String:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("want string, got %T", v)
		}
	case schema.Integer:
		switch n := v.(type) {
		case int, int64:
		case float64:
			if n != math.Trunc(n) {
				return fmt.Errorf("want integer, got %v", n)
			}
		default:
			return fmt.Errorf("want integer, got %T", v)
		}
	case schema.Number:
		switch v.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("want number, got %T", v)
		}
	case schema.Boolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("want boolean, got %T", v)
		}
	case schema.Array:
		if _, ok := v.([]any); !ok {
			return fmt.Errorf("want array, got %T", v)
		}
	case schema.Object:
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("want object, got %T", v)
		}
	}
	return nil
}
