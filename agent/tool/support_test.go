package tool

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

func TestCreateSupportTicket(t *testing.T) {
	t.Parallel()

	st := newSQLiteStore(t)
	r := newTestCatalog(t, st, nil)
	actx := createUser(t, st, "ticketer")

	res := call(t, r, contractx.AgentTypeSupport, actx, ToolCreateSupportTicket, map[string]any{
		"subject":          "Damaged monitor",
		"message":          "The screen arrived cracked.",
		"priority":         "high",
		"referenced_kb_id": "",
	})
	if !res.Success {
		t.Fatalf("create_support_ticket = %+v", res)
	}
	if steps := res.Data["next_steps"].([]string); len(steps) != 3 {
		t.Fatalf("next steps = %v", steps)
	}

	tickets, err := st.ListSupportTickets(context.Background(), actx.User())
	if err != nil {
		t.Fatalf("ListSupportTickets() error = %v", err)
	}
	if len(tickets) != 1 || tickets[0].Status != "open" || tickets[0].ReferencedKBID != "" {
		t.Fatalf("tickets = %+v", tickets)
	}

	res, err = r.Execute(context.Background(), contractx.AgentTypeSupport, actx, contractx.ToolRequest{
		Tool: ToolCreateSupportTicket,
		Args: map[string]any{
			"subject":          "Bad",
			"message":          "x",
			"priority":         "critical",
			"referenced_kb_id": "",
		},
	})
	if !errors.Is(err, ErrInvalidArgType) || res.Success {
		t.Fatalf("priority outside enum: res = %+v, err = %v", res, err)
	}
}
