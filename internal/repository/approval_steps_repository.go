package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-procurement/internal/common/database"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

// StagesRepository handles request_approval_stages. Stages are created once,
// when a request is routed, and afterwards only their decision columns
// change.
type StagesRepository struct {
	db database.Querier
}

// NewStagesRepository creates a new StagesRepository.
func NewStagesRepository(db database.Querier) *StagesRepository {
	return &StagesRepository{db: db}
}

const stageColumns = `
	request_id, stage_index, role_required, status,
	acted_by, acted_at, comment, created_at, updated_at`

// InsertStage creates one stage row.
func (r *StagesRepository) InsertStage(ctx context.Context, requestID string, stageIndex int, roleRequired, status string) error {
	query := `
		INSERT INTO request_approval_stages
		    (request_id, stage_index, role_required, status)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Exec(ctx, query, requestID, stageIndex, roleRequired, status); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create approval stage")
	}
	return nil
}

// ReadStages returns all stages of a request ordered by stage_index.
func (r *StagesRepository) ReadStages(ctx context.Context, requestID string) ([]*RequestApprovalStage, error) {
	query := `SELECT ` + stageColumns + `
		FROM request_approval_stages
		WHERE request_id = $1
		ORDER BY stage_index ASC
	`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read approval stages")
	}
	defer rows.Close()

	stages := make([]*RequestApprovalStage, 0)
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approval stage")
		}
		stages = append(stages, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read approval stages")
	}
	return stages, nil
}

// GetStage returns a single stage of a request.
func (r *StagesRepository) GetStage(ctx context.Context, requestID string, stageIndex int) (*RequestApprovalStage, error) {
	query := `SELECT ` + stageColumns + `
		FROM request_approval_stages
		WHERE request_id = $1 AND stage_index = $2
	`

	s, err := scanStage(r.db.QueryRow(ctx, query, requestID, stageIndex))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("approval_stage", requestID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get approval stage")
	}
	return s, nil
}

// UpdateStageStatus records a decision on a pending stage. A stage that is
// no longer pending is a conflict.
func (r *StagesRepository) UpdateStageStatus(
	ctx context.Context,
	requestID string,
	stageIndex int,
	status, actedBy string,
	comment *string,
) error {
	query := `
		UPDATE request_approval_stages
		SET status     = $3,
		    acted_by   = $4,
		    acted_at   = NOW(),
		    comment    = $5,
		    updated_at = NOW()
		WHERE request_id = $1
		  AND stage_index = $2
		  AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, requestID, stageIndex, status, actedBy, comment)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update approval stage")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeConflict, "stage not found or already decided")
	}
	return nil
}

// ListPending returns pending stages on pending requests. A nil role lists
// every pending stage.
func (r *StagesRepository) ListPending(ctx context.Context, role *string) ([]*PendingStage, error) {
	query := `
		SELECT s.request_id, s.stage_index, s.role_required, s.status,
		       s.acted_by, s.acted_at, s.comment, s.created_at, s.updated_at,
		       p.title, p.amount_cents, p.requester_id
		FROM request_approval_stages s
		JOIN procurement_requests p ON p.id = s.request_id
		WHERE s.status = 'pending'
		  AND p.status = 'pending'
		  AND ($1::text IS NULL OR s.role_required = $1)
		ORDER BY p.created_at ASC, s.stage_index ASC
	`

	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list pending stages")
	}
	defer rows.Close()

	pending := make([]*PendingStage, 0)
	for rows.Next() {
		p := &PendingStage{}
		err := rows.Scan(
			&p.RequestID,
			&p.StageIndex,
			&p.RoleRequired,
			&p.Status,
			&p.ActedBy,
			&p.ActedAt,
			&p.Comment,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.RequestTitle,
			&p.AmountCents,
			&p.RequesterID,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan pending stage")
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list pending stages")
	}
	return pending, nil
}

// ── scan helpers ──────────────────────────────────────────────────────────────

func scanStage(row rowScanner) (*RequestApprovalStage, error) {
	s := &RequestApprovalStage{}
	err := row.Scan(
		&s.RequestID,
		&s.StageIndex,
		&s.RoleRequired,
		&s.Status,
		&s.ActedBy,
		&s.ActedAt,
		&s.Comment,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
