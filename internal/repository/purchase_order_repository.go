package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-procurement/internal/common/database"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

// PurchaseOrderRepository handles purchase order data operations
type PurchaseOrderRepository struct {
	db database.Querier
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db database.Querier) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

const purchaseOrderColumns = `id, request_id, vendor_id, po_number, amount_cents, status, issued_by, issued_at, updated_at`

// Create inserts a purchase order. A request can only carry one.
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (request_id, vendor_id, po_number, amount_cents, status, issued_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, issued_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		po.RequestID,
		po.VendorID,
		po.PONumber,
		po.AmountCents,
		po.Status,
		po.IssuedBy,
	).Scan(&po.ID, &po.IssuedAt, &po.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.New(errors.ErrCodeConflict, "purchase order already exists for request")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create purchase order")
	}
	return nil
}

// GetByID retrieves a purchase order
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id string) (*PurchaseOrder, error) {
	if !isUUID(id) {
		return nil, errors.NotFound("purchase_order", id)
	}
	po, err := scanPurchaseOrder(r.db.QueryRow(ctx,
		`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("purchase_order", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get purchase order")
	}
	return po, nil
}

// GetByRequest retrieves the purchase order issued for a request
func (r *PurchaseOrderRepository) GetByRequest(ctx context.Context, requestID string) (*PurchaseOrder, error) {
	if !isUUID(requestID) {
		return nil, errors.NotFound("purchase_order", requestID)
	}
	po, err := scanPurchaseOrder(r.db.QueryRow(ctx,
		`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE request_id = $1`, requestID))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("purchase_order", requestID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get purchase order")
	}
	return po, nil
}

// List returns purchase orders newest first, optionally filtered by status
func (r *PurchaseOrderRepository) List(ctx context.Context, status *string, limit, offset int) ([]*PurchaseOrder, error) {
	query := `
		SELECT ` + purchaseOrderColumns + `
		FROM purchase_orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY issued_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list purchase orders")
	}
	defer rows.Close()

	orders := make([]*PurchaseOrder, 0)
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan purchase order")
		}
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list purchase orders")
	}
	return orders, nil
}

// UpdateStatus moves a purchase order from one status to another. It fails
// with CONFLICT when the order is no longer in the expected status.
func (r *PurchaseOrderRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update purchase order status")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeConflict, "purchase order status changed concurrently")
	}
	return nil
}

func scanPurchaseOrder(row rowScanner) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	err := row.Scan(
		&po.ID,
		&po.RequestID,
		&po.VendorID,
		&po.PONumber,
		&po.AmountCents,
		&po.Status,
		&po.IssuedBy,
		&po.IssuedAt,
		&po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return po, nil
}
