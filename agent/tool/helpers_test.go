package tool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSQLiteStore(t *testing.T) *storex.BunStore {
	t.Helper()

	s, err := storex.Open(storex.Config{Driver: storex.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func newTestCatalog(t *testing.T, st storex.Store, mailer contractx.Mailer) *Registry {
	t.Helper()

	r, err := NewCatalog(Deps{Store: st, Mailer: mailer, Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return r
}

func createUser(t *testing.T, st storex.Store, externalID string) contractx.AgentContext {
	t.Helper()

	u, err := st.UpsertUser(context.Background(), storex.UpsertUserInput{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		FullName:   "Casey " + externalID,
	})
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	id := u.ID
	return contractx.AgentContext{UserID: &id}
}

func createProduct(t *testing.T, st *storex.BunStore, id, name string, price float64, stock int) {
	t.Helper()

	p := &storex.Product{ID: id, Name: name, Category: "test", Description: name + " for testing", Price: price, StockQuantity: stock, CreatedAt: fixedNow}
	if _, err := st.DB().NewInsert().Model(p).Exec(context.Background()); err != nil {
		t.Fatalf("insert product error = %v", err)
	}
}

func call(t *testing.T, r *Registry, agentType contractx.AgentType, actx contractx.AgentContext, name string, args map[string]any) contractx.ToolResult {
	t.Helper()

	res, err := r.Execute(context.Background(), agentType, actx, contractx.ToolRequest{Tool: name, Args: args})
	if err != nil {
		t.Fatalf("Execute(%s) error = %v", name, err)
	}
	return res
}

var errInjected = errors.New("injected failure")

// recordingStore counts writes and can fail invoice item inserts. Views
// handed out by RunInTx share the counters.
type recordingStore struct {
	storex.Store
	writes           *atomic.Int32
	failInvoiceItems bool
}

func newRecordingStore(inner storex.Store) *recordingStore {
	return &recordingStore{Store: inner, writes: new(atomic.Int32)}
}

func (s *recordingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storex.Store) error) error {
	return s.Store.RunInTx(ctx, func(ctx context.Context, tx storex.Store) error {
		return fn(ctx, &recordingStore{Store: tx, writes: s.writes, failInvoiceItems: s.failInvoiceItems})
	})
}

func (s *recordingStore) UpsertCartItem(ctx context.Context, item *storex.CartItem) error {
	s.writes.Add(1)
	return s.Store.UpsertCartItem(ctx, item)
}

func (s *recordingStore) DeleteCartItem(ctx context.Context, userID, productID string) (bool, error) {
	s.writes.Add(1)
	return s.Store.DeleteCartItem(ctx, userID, productID)
}

func (s *recordingStore) DeleteCartItems(ctx context.Context, userID string) (int, error) {
	s.writes.Add(1)
	return s.Store.DeleteCartItems(ctx, userID)
}

func (s *recordingStore) CreateInvoice(ctx context.Context, inv *storex.Invoice) error {
	s.writes.Add(1)
	return s.Store.CreateInvoice(ctx, inv)
}

func (s *recordingStore) CreateInvoiceItems(ctx context.Context, items []storex.InvoiceItem) error {
	s.writes.Add(1)
	if s.failInvoiceItems {
		return errInjected
	}
	return s.Store.CreateInvoiceItems(ctx, items)
}

func (s *recordingStore) CreateTask(ctx context.Context, task *storex.Task) error {
	s.writes.Add(1)
	return s.Store.CreateTask(ctx, task)
}

func (s *recordingStore) UpdateTask(ctx context.Context, task *storex.Task) error {
	s.writes.Add(1)
	return s.Store.UpdateTask(ctx, task)
}

func (s *recordingStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	s.writes.Add(1)
	return s.Store.DeleteTask(ctx, userID, taskID)
}

func (s *recordingStore) CreateAuditLogEntry(ctx context.Context, e *storex.AuditEntry) error {
	s.writes.Add(1)
	return s.Store.CreateAuditLogEntry(ctx, e)
}

func (s *recordingStore) CreateSupportTicket(ctx context.Context, ticket *storex.SupportTicket) error {
	s.writes.Add(1)
	return s.Store.CreateSupportTicket(ctx, ticket)
}

type fakeMailer struct {
	configured bool
	err        error

	mu   sync.Mutex
	sent []contractx.Mail
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) Send(_ context.Context, mail contractx.Mail) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return "msg-1", nil
}
