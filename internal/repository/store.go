package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-procurement/internal/common/database"
)

// WorkflowTx is the set of reads and writes the approval workflow performs
// inside one transaction: request creation with its routed stages, and a
// stage decision with the request status it implies.
type WorkflowTx interface {
	ListActiveRules(ctx context.Context) ([]*ApprovalRule, error)

	InsertRequest(ctx context.Context, req *ProcurementRequest) error
	LockForUpdate(ctx context.Context, id string) (*ProcurementRequest, error)
	SetRule(ctx context.Context, id string, ruleID *string) error
	UpdateRequestStatus(ctx context.Context, id, status string) error

	InsertStage(ctx context.Context, requestID string, stageIndex int, roleRequired, status string) error
	ReadStages(ctx context.Context, requestID string) ([]*RequestApprovalStage, error)
	GetStage(ctx context.Context, requestID string, stageIndex int) (*RequestApprovalStage, error)
	UpdateStageStatus(ctx context.Context, requestID string, stageIndex int, status, actedBy string, comment *string) error

	AppendAudit(ctx context.Context, entry *AuditEntry) error
}

// WorkflowStore runs functions against a WorkflowTx atomically.
type WorkflowStore interface {
	InTransaction(ctx context.Context, fn func(tx WorkflowTx) error) error
}

// Store is the Postgres WorkflowStore. Every repository bound inside
// InTransaction shares the same pgx.Tx, so request and stage writes commit or
// fail together.
type Store struct {
	db database.TxBeginner
}

// NewStore creates a new Store.
func NewStore(db database.TxBeginner) *Store {
	return &Store{db: db}
}

// InTransaction binds the workflow repositories to a new transaction and runs fn.
func (s *Store) InTransaction(ctx context.Context, fn func(tx WorkflowTx) error) error {
	return database.InTransaction(ctx, s.db, func(tx pgx.Tx) error {
		return fn(newTxRepos(tx))
	})
}

// txRepos implements WorkflowTx over a single transaction.
type txRepos struct {
	*RequestRepository
	*StagesRepository
	rules *ApprovalRulesRepository
	audit *AuditRepository
}

func newTxRepos(q database.Querier) *txRepos {
	return &txRepos{
		RequestRepository: NewRequestRepository(q),
		StagesRepository:  NewStagesRepository(q),
		rules:             NewApprovalRulesRepository(q),
		audit:             NewAuditRepository(q),
	}
}

func (t *txRepos) ListActiveRules(ctx context.Context) ([]*ApprovalRule, error) {
	return t.rules.ListActiveRules(ctx)
}

func (t *txRepos) AppendAudit(ctx context.Context, entry *AuditEntry) error {
	return t.audit.Append(ctx, entry)
}
