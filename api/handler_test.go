package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	orchestrator "github.com/tanpawarit/agentic-services/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeChat struct {
	resp contractx.ChatResponse
	err  error
	got  contractx.ChatRequest
}

func (f *fakeChat) HandleChat(_ context.Context, req contractx.ChatRequest) (contractx.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeAuth map[string]*storex.User

func (f fakeAuth) Authenticate(_ context.Context, token string) (*storex.User, error) {
	if token == "broken" {
		return nil, errors.New("identity provider unavailable")
	}
	return f[token], nil
}

type fakeAccounts struct {
	sessions map[string]*storex.Session
	messages map[string][]storex.Message
	taskErr  error
}

func (f *fakeAccounts) GetSession(_ context.Context, id string) (*storex.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: session", storex.ErrNotFound)
}

func (f *fakeAccounts) ListSessions(_ context.Context, userID string, _ int) ([]storex.Session, error) {
	var out []storex.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeAccounts) ListMessages(_ context.Context, sessionID string) ([]storex.Message, error) {
	return f.messages[sessionID], nil
}

func (f *fakeAccounts) GetCartItems(context.Context, string) ([]storex.CartItem, error) {
	return []storex.CartItem{{ID: "line-1", Quantity: 2}}, nil
}

func (f *fakeAccounts) ListInvoices(context.Context, string) ([]storex.Invoice, error) {
	return []storex.Invoice{{ID: "inv-1", InvoiceNumber: 1001}}, nil
}

func (f *fakeAccounts) ListTasks(context.Context, string, storex.TaskFilter, time.Time) ([]storex.Task, error) {
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	return []storex.Task{{ID: "task-1", Title: "Call the bank"}}, nil
}

func (f *fakeAccounts) ListSupportTickets(context.Context, string) ([]storex.SupportTicket, error) {
	return nil, nil
}

func newTestServer(t *testing.T, chat *fakeChat, accounts *fakeAccounts) http.Handler {
	t.Helper()

	h, err := NewHandler(chat, fakeAuth{
		"tok-sam": {ID: "user-sam"},
		"tok-kim": {ID: "user-kim"},
	}, accounts)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return NewRouter(h, Config{AllowedOrigins: []string{"https://shop.example.com"}})
}

func do(t *testing.T, srv http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestChatSuccess(t *testing.T) {
	t.Parallel()

	sessionID := "session-1"
	chat := &fakeChat{resp: contractx.ChatResponse{Response: "Hello!", SessionID: &sessionID}}
	srv := newTestServer(t, chat, &fakeAccounts{})

	rr := do(t, srv, http.MethodPost, "/api/agent/chat", "tok-sam",
		`{"messages":[{"role":"user","content":"hi"}],"agentType":"sales","sessionId":"session-1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	body := decode(t, rr)
	if body["response"] != "Hello!" || body["sessionId"] != "session-1" {
		t.Fatalf("unexpected body: %v", body)
	}
	if chat.got.BearerToken != "tok-sam" || chat.got.AgentType != "sales" || chat.got.SessionID != "session-1" {
		t.Fatalf("unexpected chat request: %+v", chat.got)
	}
	if len(chat.got.Messages) != 1 || chat.got.Messages[0].Content != "hi" {
		t.Fatalf("unexpected messages: %+v", chat.got.Messages)
	}
}

func TestChatAnonymousSessionIsNull(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeChat{resp: contractx.ChatResponse{Response: "Hi"}}, &fakeAccounts{})

	rr := do(t, srv, http.MethodPost, "/api/agent/chat", "", `{"messages":[{"role":"user","content":"hi"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"sessionId":null`) {
		t.Fatalf("expected null sessionId, got %s", rr.Body.String())
	}
}

func TestChatErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed body",
			body:       `{"messages":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "messages required",
			body:       `{}`,
			err:        contractx.InvalidRequest(orchestrator.ErrMessagesRequired, "messages is required"),
			wantStatus: http.StatusBadRequest,
			wantError:  "messages is required",
		},
		{
			name:       "other validation",
			body:       `{"messages":[{"role":"user","content":"hi"}],"agentType":"x"}`,
			err:        fmt.Errorf("run turn: %w", contractx.InvalidRequest(nil, "unknown agent type %q", "x")),
			wantStatus: http.StatusBadRequest,
			wantError:  `unknown agent type "x"`,
		},
		{
			name:       "bare validation",
			body:       `{"messages":[{"role":"user","content":"hi"}]}`,
			err:        fmt.Errorf("%w: specialist input is empty", contractx.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request",
		},
		{
			name:       "internal",
			body:       `{"messages":[{"role":"user","content":"hi"}]}`,
			err:        fmt.Errorf("%w: upstream 502", contractx.ErrModelInvoke),
			wantStatus: http.StatusInternalServerError,
			wantError:  "failed to process request",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, &fakeChat{err: tt.err}, &fakeAccounts{})
			rr := do(t, srv, http.MethodPost, "/api/agent/chat", "", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := decode(t, rr)["error"]; got != tt.wantError {
				t.Fatalf("error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestSessionMessages(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccounts{
		sessions: map[string]*storex.Session{
			"s-sam": {ID: "s-sam", UserID: "user-sam"},
		},
		messages: map[string][]storex.Message{
			"s-sam": {
				{ID: "m1", Role: "user", Content: "hi", SequenceNumber: 1},
				{ID: "m2", Role: "assistant", Content: "hello", SequenceNumber: 2},
			},
		},
	}
	srv := newTestServer(t, &fakeChat{}, accounts)

	rr := do(t, srv, http.MethodGet, "/api/sessions/s-sam/messages", "tok-sam", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("owner status = %d", rr.Code)
	}
	msgs, _ := decode(t, rr)["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{name: "anonymous", path: "/api/sessions/s-sam/messages", wantStatus: http.StatusUnauthorized},
		{name: "identity failure", path: "/api/sessions/s-sam/messages", token: "broken", wantStatus: http.StatusUnauthorized},
		{name: "other user", path: "/api/sessions/s-sam/messages", token: "tok-kim", wantStatus: http.StatusNotFound},
		{name: "unknown session", path: "/api/sessions/missing/messages", token: "tok-sam", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		if rr := do(t, srv, http.MethodGet, tt.path, tt.token, ""); rr.Code != tt.wantStatus {
			t.Fatalf("%s: status = %d, want %d", tt.name, rr.Code, tt.wantStatus)
		}
	}
}

func TestAccountOverview(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccounts{sessions: map[string]*storex.Session{
		"s-sam": {ID: "s-sam", UserID: "user-sam"},
		"s-kim": {ID: "s-kim", UserID: "user-kim"},
	}}
	srv := newTestServer(t, &fakeChat{}, accounts)

	rr := do(t, srv, http.MethodGet, "/api/account/overview", "tok-sam", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode(t, rr)
	for key, want := range map[string]int{"cart": 1, "invoices": 1, "tasks": 1, "sessions": 1} {
		got, _ := body[key].([]any)
		if len(got) != want {
			t.Fatalf("%s: got %d entries, want %d", key, len(got), want)
		}
	}

	if rr := do(t, srv, http.MethodGet, "/api/account/overview", "", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rr.Code)
	}

	failing := newTestServer(t, &fakeChat{}, &fakeAccounts{taskErr: errors.New("db down")})
	if rr := do(t, failing, http.MethodGet, "/api/account/overview", "tok-sam", ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("failing store status = %d", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeChat{}, &fakeAccounts{})

	req := httptest.NewRequest(http.MethodOptions, "/api/agent/chat", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("allow credentials = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/agent/chat", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestHeartbeat(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeChat{}, &fakeAccounts{})
	if rr := do(t, srv, http.MethodGet, "/health", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("health status = %d", rr.Code)
	}
}

type stubRegistry struct{}

func (stubRegistry) Router() contractx.Router { return nil }

func (stubRegistry) Specialist(agentType contractx.AgentType) (contractx.Specialist, bool) {
	return stubSpecialist{}, agentType == contractx.AgentTypeSales
}

func (stubRegistry) Definition(agentType contractx.AgentType) (contractx.SpecialistDefinition, bool) {
	return contractx.SpecialistDefinition{AgentType: agentType}, agentType == contractx.AgentTypeSales
}

type stubSpecialist struct{}

func (stubSpecialist) Definition() contractx.SpecialistDefinition {
	return contractx.SpecialistDefinition{AgentType: contractx.AgentTypeSales}
}

func (stubSpecialist) Run(context.Context, contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	return contractx.SpecialistResponse{Message: "We stock laptops."}, nil
}

type anonymousResolver struct{}

func (anonymousResolver) Resolve(context.Context, string) contractx.AgentContext {
	return contractx.AgentContext{}
}

func (anonymousResolver) EnsureSession(_ context.Context, actx contractx.AgentContext, _ string, _ contractx.SpecialistDefinition) (contractx.AgentContext, error) {
	return actx, nil
}

type discardLog struct{}

func (discardLog) AppendMessage(context.Context, storex.NewMessage) (*storex.Message, error) {
	return &storex.Message{}, nil
}

func (discardLog) UpdateSessionMetadata(context.Context, string, storex.SessionMetadata) error {
	return nil
}

func TestChatValidationThroughOrchestrator(t *testing.T) {
	t.Parallel()

	orch, err := orchestrator.New(stubRegistry{}, anonymousResolver{}, discardLog{}, orchestrator.Config{})
	if err != nil {
		t.Fatalf("orchestrator.New() error = %v", err)
	}
	h, err := NewHandler(orch, fakeAuth{}, &fakeAccounts{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	srv := NewRouter(h, Config{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "unknown agent type",
			body:       `{"messages":[{"role":"user","content":"hi"}],"agentType":"billing"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"unknown agent type \"billing\""}`,
		},
		{
			name:       "no messages",
			body:       `{"messages":[]}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"messages is required"}`,
		},
		{
			name:       "unsupported role",
			body:       `{"messages":[{"role":"tool","content":"x"},{"role":"user","content":"hi"}],"agentType":"sales"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"messages[0] has unsupported role \"tool\""}`,
		},
		{
			name:       "success",
			body:       `{"messages":[{"role":"user","content":"hi"}],"agentType":"sales"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"response":"We stock laptops.","sessionId":null}`,
		},
	}

	for _, tt := range tests {
		rr := do(t, srv, http.MethodPost, "/api/agent/chat", "", tt.body)
		if rr.Code != tt.wantStatus {
			t.Fatalf("%s: status = %d, want %d", tt.name, rr.Code, tt.wantStatus)
		}
		if got := strings.TrimSpace(rr.Body.String()); got != tt.wantBody {
			t.Fatalf("%s: body = %s, want %s", tt.name, got, tt.wantBody)
		}
	}
}
