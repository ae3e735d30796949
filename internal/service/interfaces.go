package service

import (
	"context"

	"github.com/pesio-ai/be-procurement/internal/repository"
)

// Notifier publishes workflow events. Implemented by
// client.NotificationPublisher; publishing never fails the caller.
type Notifier interface {
	PublishRequestEvent(ctx context.Context, eventType, requestID, actorID string, recipients []string, payload map[string]interface{})
	PublishPurchaseOrderEvent(ctx context.Context, eventType, poID, actorID string, recipients []string, payload map[string]interface{})
}

// RoleDirectory resolves the users who hold a role.
type RoleDirectory interface {
	ListIDsByRole(ctx context.Context, role string) ([]string, error)
}

// PermissionChecker answers role based authorization questions. Implemented
// by authz.Authorizer.
type PermissionChecker interface {
	Authorize(subject, object, action string) (allowed bool, enforced bool, err error)
}

// RequestReader reads requests outside the workflow transaction.
type RequestReader interface {
	GetByID(ctx context.Context, id string) (*repository.ProcurementRequest, error)
	List(ctx context.Context, f repository.RequestFilter) ([]*repository.ProcurementRequest, int64, error)
	CountByStatus(ctx context.Context, requesterID *string) (map[string]int64, error)
}

// StageReader reads approval stages outside the workflow transaction.
type StageReader interface {
	ReadStages(ctx context.Context, requestID string) ([]*repository.RequestApprovalStage, error)
	ListPending(ctx context.Context, role *string) ([]*repository.PendingStage, error)
}

// AuditReader reads a request's audit trail.
type AuditReader interface {
	ListByRequest(ctx context.Context, requestID string) ([]*repository.AuditEntry, error)
}

// RuleRepository persists approval rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *repository.ApprovalRule) error
	GetByID(ctx context.Context, id string) (*repository.ApprovalRule, error)
	List(ctx context.Context, activeOnly bool) ([]*repository.ApprovalRule, error)
	Update(ctx context.Context, rule *repository.ApprovalRule) error
	Delete(ctx context.Context, id string) error
}

// VendorRepository persists vendors.
type VendorRepository interface {
	Create(ctx context.Context, v *repository.Vendor) error
	GetByID(ctx context.Context, id string) (*repository.Vendor, error)
	List(ctx context.Context, activeOnly bool) ([]*repository.Vendor, error)
	Update(ctx context.Context, v *repository.Vendor) error
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *repository.Category) error
	GetByID(ctx context.Context, id string) (*repository.Category, error)
	List(ctx context.Context) ([]*repository.Category, error)
	Update(ctx context.Context, c *repository.Category) error
	Delete(ctx context.Context, id string) error
}

// PurchaseOrderRepository persists purchase orders.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *repository.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*repository.PurchaseOrder, error)
	List(ctx context.Context, status *string, limit, offset int) ([]*repository.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id, from, to string) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	RoleDirectory
	Create(ctx context.Context, u *repository.User) error
	GetByID(ctx context.Context, id string) (*repository.User, error)
	GetByEmail(ctx context.Context, email string) (*repository.User, error)
}
