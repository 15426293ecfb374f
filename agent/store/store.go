package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

var (
	ErrNotFound      = contractx.ErrNotFound
	ErrNilRecord     = errors.New("record is nil")
	ErrInvalidDriver = errors.New("unsupported database driver")
	ErrOutOfStock    = errors.New("not enough stock")
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type UserStore interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpsertUser(ctx context.Context, in UpsertUserInput) (*User, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSessionMetadata(ctx context.Context, id string, meta SessionMetadata) error
	ListSessions(ctx context.Context, userID string, limit int) ([]Session, error)
}

type MessageStore interface {
	AppendMessage(ctx context.Context, in NewMessage) (*Message, error)
	CountMessages(ctx context.Context, sessionID string) (int, error)
	ListMessages(ctx context.Context, sessionID string) ([]Message, error)
}

type CatalogStore interface {
	ListProducts(ctx context.Context) ([]Product, error)
	FindProductsByName(ctx context.Context, query string) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
}

type CartStore interface {
	GetCartItems(ctx context.Context, userID string) ([]CartItem, error)
	GetCartItem(ctx context.Context, userID, productID string) (*CartItem, error)
	UpsertCartItem(ctx context.Context, item *CartItem) error
	DeleteCartItem(ctx context.Context, userID, productID string) (bool, error)
	DeleteCartItems(ctx context.Context, userID string) (int, error)
}

type InvoiceStore interface {
	NextInvoiceNumber(ctx context.Context) (int64, error)
	CreateInvoice(ctx context.Context, inv *Invoice) error
	CreateInvoiceItems(ctx context.Context, items []InvoiceItem) error
	ListInvoices(ctx context.Context, userID string) ([]Invoice, error)
}

type TaskStore interface {
	ListTasks(ctx context.Context, userID string, filter TaskFilter, now time.Time) ([]Task, error)
	GetTask(ctx context.Context, userID, taskID string) (*Task, error)
	CreateTask(ctx context.Context, t *Task) error
	UpdateTask(ctx context.Context, t *Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error
	CreateAuditLogEntry(ctx context.Context, e *AuditEntry) error
	ListAuditLog(ctx context.Context, userID, taskID string) ([]AuditEntry, error)
}

type TicketStore interface {
	CreateSupportTicket(ctx context.Context, t *SupportTicket) error
	ListSupportTickets(ctx context.Context, userID string) ([]SupportTicket, error)
}

type KnowledgeStore interface {
	ListKBArticles(ctx context.Context) ([]KBArticle, error)
	ListNavPaths(ctx context.Context) ([]NavPath, error)
}

// Store is the persistence contract consumed by the agent core.
type Store interface {
	UserStore
	SessionStore
	MessageStore
	CatalogStore
	CartStore
	InvoiceStore
	TaskStore
	TicketStore
	KnowledgeStore

	// RunInTx runs fn against a transactional view of the store. Nested calls
	// join the outer transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type UpsertUserInput struct {
	ExternalID  string
	Email       string
	FullName    string
	IsAnonymous bool
	SeenAt      time.Time
}

type SessionMetadata struct {
	LastUserMessage string
	LastAIMessage   string
	LastMessageAt   time.Time
}

type NewMessage struct {
	SessionID string
	UserID    string
	Role      string
	Content   string
	CreatedAt time.Time
}

type Config struct {
	Driver       string `split_words:"true" default:"postgres"`
	DSN          string `envconfig:"DSN" required:"true"`
	MaxOpenConns int    `split_words:"true" default:"10"`
	AutoMigrate  bool   `split_words:"true" default:"true"`
	AutoSeed     bool   `split_words:"true" default:"false"`
}

// BunStore implements Store on top of bun for Postgres and SQLite.
type BunStore struct {
	root *bun.DB
	db   bun.IDB
}

var _ Store = (*BunStore)(nil)

func Open(cfg Config) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}

	var db *bun.DB
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres, "":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		if cfg.MaxOpenConns > 0 {
			sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// one connection keeps :memory: databases alive and serializes writers
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		sqldb.SetConnMaxLifetime(0)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, cfg.Driver)
	}

	db.AddQueryHook(queryLogHook{})
	return New(db), nil
}

func New(db *bun.DB) *BunStore {
	return &BunStore{root: db, db: db}
}

func (s *BunStore) DB() *bun.DB {
	return s.root
}

func (s *BunStore) Ping(ctx context.Context) error {
	return s.root.PingContext(ctx)
}

func (s *BunStore) Close() error {
	return s.root.Close()
}

func (s *BunStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.inTx(ctx, func(ctx context.Context, tx *BunStore) error {
		return fn(ctx, tx)
	})
}

func (s *BunStore) inTx(ctx context.Context, fn func(ctx context.Context, tx *BunStore) error) error {
	if _, ok := s.db.(bun.Tx); ok {
		return fn(ctx, s)
	}
	return s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &BunStore{root: s.root, db: tx})
	})
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
