package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-procurement/internal/common/database"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

// ApprovalRulesRepository handles CRUD for approval_rules.
type ApprovalRulesRepository struct {
	db database.Querier
}

// NewApprovalRulesRepository creates a new ApprovalRulesRepository.
func NewApprovalRulesRepository(db database.Querier) *ApprovalRulesRepository {
	return &ApprovalRulesRepository{db: db}
}

const ruleColumns = `
	id, name, active, min_amount, max_amount, category_id, vendor_id,
	stages, priority, created_at, updated_at`

// Create inserts a new approval rule.
func (r *ApprovalRulesRepository) Create(ctx context.Context, rule *ApprovalRule) error {
	stagesJSON, err := marshalStages(rule.Stages)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO approval_rules
		    (name, active, min_amount, max_amount, category_id, vendor_id,
		     stages, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		rule.Name,
		rule.Active,
		rule.MinAmount,
		rule.MaxAmount,
		rule.CategoryID,
		rule.VendorID,
		stagesJSON,
		rule.Priority,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create approval rule")
	}
	return nil
}

// GetByID retrieves a rule by primary key.
func (r *ApprovalRulesRepository) GetByID(ctx context.Context, id string) (*ApprovalRule, error) {
	if !isUUID(id) {
		return nil, errors.NotFound("approval_rule", id)
	}
	query := `SELECT ` + ruleColumns + ` FROM approval_rules WHERE id = $1`

	rule, err := scanRule(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("approval_rule", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get approval rule")
	}
	return rule, nil
}

// List returns rules in evaluation order, optionally active only.
func (r *ApprovalRulesRepository) List(ctx context.Context, activeOnly bool) ([]*ApprovalRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM approval_rules`
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY priority ASC, created_at ASC, id ASC"

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list approval rules")
	}
	defer rows.Close()

	rules := make([]*ApprovalRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approval rule")
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list approval rules")
	}
	return rules, nil
}

// ListActiveRules returns active rules in evaluation order: priority, then
// authoring order. Routing takes the first match, so this order is the
// tie-break.
func (r *ApprovalRulesRepository) ListActiveRules(ctx context.Context) ([]*ApprovalRule, error) {
	return r.List(ctx, true)
}

// Update persists changes to an existing rule.
func (r *ApprovalRulesRepository) Update(ctx context.Context, rule *ApprovalRule) error {
	stagesJSON, err := marshalStages(rule.Stages)
	if err != nil {
		return err
	}

	query := `
		UPDATE approval_rules
		SET name        = $2,
		    active      = $3,
		    min_amount  = $4,
		    max_amount  = $5,
		    category_id = $6,
		    vendor_id   = $7,
		    stages      = $8,
		    priority    = $9,
		    updated_at  = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.db.QueryRow(ctx, query,
		rule.ID,
		rule.Name,
		rule.Active,
		rule.MinAmount,
		rule.MaxAmount,
		rule.CategoryID,
		rule.VendorID,
		stagesJSON,
		rule.Priority,
	).Scan(&rule.UpdatedAt)

	if err == pgx.ErrNoRows {
		return errors.NotFound("approval_rule", rule.ID)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update approval rule")
	}
	return nil
}

// Delete removes an approval rule. Requests routed by it keep their stages;
// their rule_id is cleared by the foreign key.
func (r *ApprovalRulesRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return errors.NotFound("approval_rule", id)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM approval_rules WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to delete approval rule")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("approval_rule", id)
	}
	return nil
}

// ── scan helpers ─────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*ApprovalRule, error) {
	rule := &ApprovalRule{}
	var stagesJSON []byte

	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Active,
		&rule.MinAmount,
		&rule.MaxAmount,
		&rule.CategoryID,
		&rule.VendorID,
		&stagesJSON,
		&rule.Priority,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Stages = []string{}
	if len(stagesJSON) > 0 {
		if err := json.Unmarshal(stagesJSON, &rule.Stages); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal rule stages")
		}
	}
	return rule, nil
}

func marshalStages(stages []string) ([]byte, error) {
	if stages == nil {
		stages = []string{}
	}
	b, err := json.Marshal(stages)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal rule stages")
	}
	return b, nil
}
