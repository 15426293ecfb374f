package store

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           string    `bun:"id,pk" json:"id"`
	AuthUserID   string    `bun:"auth_user_id,notnull,unique" json:"auth_user_id"`
	Email        string    `bun:"email,notnull" json:"email"`
	FullName     string    `bun:"full_name,notnull" json:"full_name"`
	IsAnonymous  bool      `bun:"is_anonymous,notnull" json:"is_anonymous"`
	UserStatus   string    `bun:"user_status,notnull" json:"user_status"`
	LastActiveAt time.Time `bun:"last_active_at,notnull" json:"last_active_at"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}

// DisplayName is the name used to sign outbound mail.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return ""
}

type Session struct {
	bun.BaseModel `bun:"table:chat_sessions,alias:cs"`

	ID               string     `bun:"id,pk" json:"id"`
	UserID           string     `bun:"user_id,notnull" json:"user_id"`
	AgentType        string     `bun:"agent_type,notnull" json:"agent_type"`
	AgentDisplayName string     `bun:"agent_display_name,notnull" json:"agent_display_name"`
	MessageCount     int        `bun:"message_count,notnull" json:"message_count"`
	LastUserMessage  string     `bun:"last_user_message,notnull" json:"last_user_message"`
	LastAIMessage    string     `bun:"last_ai_message,notnull" json:"last_ai_message"`
	LastMessageAt    *time.Time `bun:"last_message_at" json:"last_message_at"`
	IsActive         bool       `bun:"is_active,notnull" json:"is_active"`
	CreatedAt        time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt        time.Time  `bun:"updated_at,notnull" json:"updated_at"`
}

type Message struct {
	bun.BaseModel `bun:"table:messages,alias:msg"`

	ID             string    `bun:"id,pk" json:"id"`
	SessionID      string    `bun:"session_id,notnull" json:"session_id"`
	UserID         string    `bun:"user_id,notnull" json:"user_id"`
	Role           string    `bun:"role,notnull" json:"role"`
	Content        string    `bun:"content,notnull" json:"content"`
	SequenceNumber int       `bun:"sequence_number,notnull" json:"sequence_number"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:prd"`

	ID            string    `bun:"id,pk" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Category      string    `bun:"category,notnull" json:"category"`
	Description   string    `bun:"description,notnull" json:"description"`
	Price         float64   `bun:"price,notnull" json:"price"`
	StockQuantity int       `bun:"stock_quantity,notnull" json:"stock_quantity"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

type CartItem struct {
	bun.BaseModel `bun:"table:cart_items,alias:ci"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	ProductID string    `bun:"product_id,notnull" json:"product_id"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity"`
	AddedAt   time.Time `bun:"added_at,notnull" json:"added_at"`

	Product *Product `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
}

type Invoice struct {
	bun.BaseModel `bun:"table:invoices,alias:inv"`

	ID            string     `bun:"id,pk" json:"id"`
	InvoiceNumber int64      `bun:"invoice_number,notnull,unique" json:"invoice_number"`
	UserID        string     `bun:"user_id,notnull" json:"user_id"`
	Status        string     `bun:"status,notnull" json:"status"`
	Currency      string     `bun:"currency,notnull" json:"currency"`
	Subtotal      float64    `bun:"subtotal,notnull" json:"subtotal"`
	TaxTotal      float64    `bun:"tax_total,notnull" json:"tax_total"`
	TotalAmount   float64    `bun:"total_amount,notnull" json:"total_amount"`
	BillingEmail  string     `bun:"billing_email,nullzero" json:"billing_email"`
	PaidAt        *time.Time `bun:"paid_at" json:"paid_at"`
	CreatedAt     time.Time  `bun:"created_at,notnull" json:"created_at"`

	Items []InvoiceItem `bun:"rel:has-many,join:id=invoice_id" json:"items,omitempty"`
}

type InvoiceItem struct {
	bun.BaseModel `bun:"table:invoice_items,alias:ii"`

	ID          string  `bun:"id,pk" json:"id"`
	InvoiceID   string  `bun:"invoice_id,notnull" json:"invoice_id"`
	ProductID   string  `bun:"product_id,notnull" json:"product_id"`
	ProductName string  `bun:"product_name,notnull" json:"product_name"`
	UnitPrice   float64 `bun:"unit_price,notnull" json:"unit_price"`
	Quantity    int     `bun:"quantity,notnull" json:"quantity"`
	TotalPrice  float64 `bun:"total_price,notnull" json:"total_price"`
}

type Task struct {
	bun.BaseModel `bun:"table:agent_tasks,alias:tsk"`

	ID          string     `bun:"id,pk" json:"id"`
	UserID      string     `bun:"user_id,notnull" json:"user_id"`
	Title       string     `bun:"title,notnull" json:"title"`
	Description string     `bun:"description,notnull" json:"description"`
	Status      string     `bun:"status,notnull" json:"status"`
	Priority    string     `bun:"priority,notnull" json:"priority"`
	DueAt       *time.Time `bun:"due_at" json:"due_at"`
	CompletedAt *time.Time `bun:"completed_at" json:"completed_at"`
	CreatedAt   time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull" json:"updated_at"`
}

// Snapshot is the audit representation of a task.
func (t *Task) Snapshot() map[string]any {
	if t == nil {
		return nil
	}
	out := map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"priority":    t.Priority,
		"due_at":      nil,
	}
	if t.DueAt != nil {
		out["due_at"] = t.DueAt.UTC().Format(time.RFC3339)
	}
	return out
}

// AuditEntry rows are not tied to agent_tasks by a foreign key, so they
// outlive the task they describe.
type AuditEntry struct {
	bun.BaseModel `bun:"table:agent_actions,alias:aa"`

	ID            string         `bun:"id,pk" json:"id"`
	UserID        string         `bun:"user_id,notnull" json:"user_id"`
	TaskID        string         `bun:"task_id,notnull" json:"task_id"`
	ActionType    string         `bun:"action_type,notnull" json:"action_type"`
	PreviousState map[string]any `bun:"previous_state" json:"previous_state"`
	NewState      map[string]any `bun:"new_state" json:"new_state"`
	CreatedAt     time.Time      `bun:"created_at,notnull" json:"created_at"`
}

type SupportTicket struct {
	bun.BaseModel `bun:"table:support_tickets,alias:st"`

	ID             string    `bun:"id,pk" json:"id"`
	UserID         string    `bun:"user_id,notnull" json:"user_id"`
	Subject        string    `bun:"subject,notnull" json:"subject"`
	Message        string    `bun:"message,notnull" json:"message"`
	Priority       string    `bun:"priority,notnull" json:"priority"`
	Status         string    `bun:"status,notnull" json:"status"`
	ReferencedKBID string    `bun:"referenced_kb_id,nullzero" json:"referenced_kb_id,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}

type KBCategory struct {
	bun.BaseModel `bun:"table:kb_categories,alias:kbc"`

	ID           string `bun:"id,pk" json:"id"`
	Name         string `bun:"name,notnull" json:"name"`
	Slug         string `bun:"slug,notnull,unique" json:"slug"`
	IconName     string `bun:"icon_name,notnull" json:"icon_name"`
	DisplayOrder int    `bun:"display_order,notnull" json:"display_order"`
}

type KBArticle struct {
	bun.BaseModel `bun:"table:kb_articles,alias:kba"`

	ID           string `bun:"id,pk" json:"id"`
	CategoryID   string `bun:"category_id,notnull" json:"category_id"`
	Title        string `bun:"title,notnull" json:"title"`
	Description  string `bun:"description,notnull" json:"description"`
	Content      string `bun:"content,notnull" json:"content"`
	DisplayOrder int    `bun:"display_order,notnull" json:"display_order"`
	IsActive     bool   `bun:"is_active,notnull" json:"is_active"`

	Category *KBCategory `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
}

type NavModule struct {
	bun.BaseModel `bun:"table:nav_modules,alias:nm"`

	ID           string `bun:"id,pk" json:"id"`
	Name         string `bun:"name,notnull" json:"name"`
	Slug         string `bun:"slug,notnull,unique" json:"slug"`
	Description  string `bun:"description,notnull" json:"description"`
	DisplayOrder int    `bun:"display_order,notnull" json:"display_order"`
}

type NavPath struct {
	bun.BaseModel `bun:"table:nav_paths,alias:np"`

	ID            string   `bun:"id,pk" json:"id"`
	ModuleID      string   `bun:"module_id,notnull" json:"module_id"`
	Title         string   `bun:"title,notnull" json:"title"`
	Route         string   `bun:"route,notnull,unique" json:"route"`
	Description   string   `bun:"description,notnull" json:"description"`
	Content       string   `bun:"content,notnull" json:"content"`
	Keywords      []string `bun:"keywords" json:"keywords"`
	Steps         []string `bun:"steps" json:"steps"`
	RelatedRoutes []string `bun:"related_routes" json:"related_routes"`
	DisplayOrder  int      `bun:"display_order,notnull" json:"display_order"`

	Module *NavModule `bun:"rel:belongs-to,join:module_id=id" json:"module,omitempty"`
}
