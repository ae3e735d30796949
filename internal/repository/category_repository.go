package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-procurement/internal/common/database"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

// CategoryRepository handles category data operations
type CategoryRepository struct {
	db database.Querier
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db database.Querier) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, name, description, created_at, updated_at`

// Create inserts a category
func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, c.Name, c.Description).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.New(errors.ErrCodeConflict, "category name already exists")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create category")
	}
	return nil
}

// GetByID retrieves a category
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*Category, error) {
	if !isUUID(id) {
		return nil, errors.NotFound("category", id)
	}
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("category", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get category")
	}
	return c, nil
}

// GetByName retrieves a category by its unique name
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("category", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get category")
	}
	return c, nil
}

// List returns all categories ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list categories")
	}
	defer rows.Close()

	categories := make([]*Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan category")
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list categories")
	}
	return categories, nil
}

// Update persists category changes
func (r *CategoryRepository) Update(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories
		SET name = $2,
		    description = $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, c.ID, c.Name, c.Description).Scan(&c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return errors.NotFound("category", c.ID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return errors.New(errors.ErrCodeConflict, "category name already exists")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update category")
	}
	return nil
}

// Delete removes a category that no request or rule references
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return errors.NotFound("category", id)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errors.New(errors.ErrCodeConflict, "category is referenced by requests or rules")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to delete category")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("category", id)
	}
	return nil
}

func scanCategory(row rowScanner) (*Category, error) {
	c := &Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}
