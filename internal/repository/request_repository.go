package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-procurement/internal/common/database"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

// RequestRepository handles procurement request data operations
type RequestRepository struct {
	db database.Querier
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db database.Querier) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `
	id, requester_id, title, description, amount_cents,
	category_id, vendor_id, status, rule_id, attachment_urls,
	created_at, updated_at`

// InsertRequest creates a new request. ID and timestamps are assigned by the
// database.
func (r *RequestRepository) InsertRequest(ctx context.Context, req *ProcurementRequest) error {
	query := `
		INSERT INTO procurement_requests
		    (requester_id, title, description, amount_cents,
		     category_id, vendor_id, status, attachment_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	attachments := req.AttachmentURLs
	if attachments == nil {
		attachments = []string{}
	}

	err := r.db.QueryRow(ctx, query,
		req.RequesterID,
		req.Title,
		req.Description,
		req.AmountCents,
		req.CategoryID,
		req.VendorID,
		req.Status,
		attachments,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create request")
	}
	return nil
}

// GetByID retrieves a request without its stages.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*ProcurementRequest, error) {
	if !isUUID(id) {
		return nil, errors.NotFound("request", id)
	}
	query := `SELECT ` + requestColumns + ` FROM procurement_requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("request", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get request")
	}
	return req, nil
}

// LockForUpdate reads a request and holds a row lock until the surrounding
// transaction ends, serializing concurrent decisions on the same request.
func (r *RequestRepository) LockForUpdate(ctx context.Context, id string) (*ProcurementRequest, error) {
	if !isUUID(id) {
		return nil, errors.NotFound("request", id)
	}
	query := `SELECT ` + requestColumns + ` FROM procurement_requests WHERE id = $1 FOR UPDATE`

	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("request", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to lock request")
	}
	return req, nil
}

// List retrieves requests with filtering and pagination
func (r *RequestRepository) List(ctx context.Context, f RequestFilter) ([]*ProcurementRequest, int64, error) {
	query := `SELECT ` + requestColumns + ` FROM procurement_requests WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM procurement_requests WHERE 1=1`

	args := []interface{}{}
	argCount := 1

	addFilter := func(column string, value *string) {
		if value == nil {
			return
		}
		clause := fmt.Sprintf(" AND %s = $%d", column, argCount)
		query += clause
		countQuery += clause
		args = append(args, *value)
		argCount++
	}
	addFilter("requester_id", f.RequesterID)
	addFilter("status", f.Status)
	addFilter("category_id", f.CategoryID)
	addFilter("vendor_id", f.VendorID)

	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)

	queryArgs := append(append([]interface{}{}, args...), f.Limit, f.Offset)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count requests")
	}

	rows, err := r.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list requests")
	}
	defer rows.Close()

	requests := make([]*ProcurementRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan request")
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list requests")
	}

	return requests, total, nil
}

// UpdateRequestStatus writes the request's aggregate status.
func (r *RequestRepository) UpdateRequestStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE procurement_requests
		SET status = $2,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update request status")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("request", id)
	}
	return nil
}

// SetRule records which approval rule routed the request.
func (r *RequestRepository) SetRule(ctx context.Context, id string, ruleID *string) error {
	query := `
		UPDATE procurement_requests
		SET rule_id = $2,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, ruleID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to record request rule")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("request", id)
	}
	return nil
}

// CountByStatus returns request counts keyed by status, optionally limited to
// one requester.
func (r *RequestRepository) CountByStatus(ctx context.Context, requesterID *string) (map[string]int64, error) {
	query := `
		SELECT status, COUNT(*)
		FROM procurement_requests
		WHERE ($1::uuid IS NULL OR requester_id = $1)
		GROUP BY status
	`

	rows, err := r.db.Query(ctx, query, requesterID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to count requests")
	}
	defer rows.Close()

	counts := map[string]int64{
		StatusPending:  0,
		StatusApproved: 0,
		StatusDenied:   0,
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan request count")
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to count requests")
	}
	return counts, nil
}

func scanRequest(row rowScanner) (*ProcurementRequest, error) {
	req := &ProcurementRequest{}
	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.Title,
		&req.Description,
		&req.AmountCents,
		&req.CategoryID,
		&req.VendorID,
		&req.Status,
		&req.RuleID,
		&req.AttachmentURLs,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}
