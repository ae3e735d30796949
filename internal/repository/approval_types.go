package repository

import "time"

// ── Status values ────────────────────────────────────────────────────────────

// Statuses shared by procurement requests and their approval stages.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// Purchase order statuses.
const (
	POStatusIssued    = "issued"
	POStatusReceived  = "received"
	POStatusCancelled = "cancelled"
)

// Audit actions.
const (
	AuditSubmitted = "submitted"
	AuditRouted    = "routed"
	AuditApproved  = "approved"
	AuditDenied    = "denied"
	AuditResolved  = "resolved"
)

// ── Domain types for the approval workflow ───────────────────────────────────

// ApprovalRule maps a request's amount, category and vendor to an ordered list
// of approver roles.
type ApprovalRule struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Active     bool      `json:"active"`
	MinAmount  int64     `json:"min_amount"`  // cents, inclusive
	MaxAmount  *int64    `json:"max_amount"`  // cents, inclusive; nil = no upper bound
	CategoryID *string   `json:"category_id"` // nil = any category
	VendorID   *string   `json:"vendor_id"`   // nil = any vendor
	Stages     []string  `json:"stages"`
	Priority   int       `json:"priority"` // lower = evaluated first
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProcurementRequest is a purchase request raised by a requester.
type ProcurementRequest struct {
	ID             string                  `json:"id"`
	RequesterID    string                  `json:"requester_id"`
	Title          string                  `json:"title"`
	Description    *string                 `json:"description,omitempty"`
	AmountCents    int64                   `json:"amount_cents"`
	CategoryID     *string                 `json:"category_id"`
	VendorID       *string                 `json:"vendor_id"`
	Status         string                  `json:"status"` // pending | approved | denied
	RuleID         *string                 `json:"rule_id,omitempty"`
	AttachmentURLs []string                `json:"attachment_urls"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	Stages         []*RequestApprovalStage `json:"stages,omitempty"`
}

// RequestApprovalStage is one required approval step of a request. StageIndex
// values for a request are contiguous from 0.
type RequestApprovalStage struct {
	RequestID    string     `json:"request_id"`
	StageIndex   int        `json:"stage_index"`
	RoleRequired string     `json:"role_required"`
	Status       string     `json:"status"` // pending | approved | denied
	ActedBy      *string    `json:"acted_by,omitempty"`
	ActedAt      *time.Time `json:"acted_at,omitempty"`
	Comment      *string    `json:"comment,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RequestFilter narrows request listings. Nil fields do not filter.
type RequestFilter struct {
	RequesterID *string
	Status      *string
	CategoryID  *string
	VendorID    *string
	Limit       int
	Offset      int
}

// PendingStage is a stage awaiting a decision, joined with request context
// for approver inboxes.
type PendingStage struct {
	RequestApprovalStage
	RequestTitle string `json:"request_title"`
	AmountCents  int64  `json:"amount_cents"`
	RequesterID  string `json:"requester_id"`
}

// AuditEntry is one immutable record in a request's audit trail.
type AuditEntry struct {
	ID           string                 `json:"id"`
	RequestID    string                 `json:"request_id"`
	StageIndex   *int                   `json:"stage_index,omitempty"`
	Action       string                 `json:"action"`
	PerformedBy  string                 `json:"performed_by"`
	PerformedAt  time.Time              `json:"performed_at"`
	StatusBefore *string                `json:"status_before,omitempty"`
	StatusAfter  *string                `json:"status_after,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ── Catalog and ordering ─────────────────────────────────────────────────────

// Vendor is a supplier that requests and purchase orders may reference.
type Vendor struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail *string   `json:"contact_email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Address      *string   `json:"address,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Category groups requests for rule scoping and reporting.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PurchaseOrder is issued against an approved request.
type PurchaseOrder struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	VendorID    string    `json:"vendor_id"`
	PONumber    string    `json:"po_number"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"` // issued | received | cancelled
	IssuedBy    string    `json:"issued_by"`
	IssuedAt    time.Time `json:"issued_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is an account that can sign in.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // requester | approver | admin
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
