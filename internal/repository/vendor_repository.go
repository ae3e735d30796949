package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-procurement/internal/common/database"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

// VendorRepository handles vendor data operations
type VendorRepository struct {
	db database.Querier
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db database.Querier) *VendorRepository {
	return &VendorRepository{db: db}
}

const vendorColumns = `id, name, contact_email, phone, address, active, created_at, updated_at`

// Create inserts a vendor
func (r *VendorRepository) Create(ctx context.Context, v *Vendor) error {
	query := `
		INSERT INTO vendors (name, contact_email, phone, address, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, v.Name, v.ContactEmail, v.Phone, v.Address, v.Active).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.New(errors.ErrCodeConflict, "vendor name already exists")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create vendor")
	}
	return nil
}

// GetByID retrieves a vendor
func (r *VendorRepository) GetByID(ctx context.Context, id string) (*Vendor, error) {
	if !isUUID(id) {
		return nil, errors.NotFound("vendor", id)
	}
	v, err := scanVendor(r.db.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("vendor", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get vendor")
	}
	return v, nil
}

// GetByName retrieves a vendor by its unique name
func (r *VendorRepository) GetByName(ctx context.Context, name string) (*Vendor, error) {
	v, err := scanVendor(r.db.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE name = $1`, name))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("vendor", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get vendor")
	}
	return v, nil
}

// List returns vendors ordered by name
func (r *VendorRepository) List(ctx context.Context, activeOnly bool) ([]*Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors`
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list vendors")
	}
	defer rows.Close()

	vendors := make([]*Vendor, 0)
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan vendor")
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list vendors")
	}
	return vendors, nil
}

// Update persists vendor changes
func (r *VendorRepository) Update(ctx context.Context, v *Vendor) error {
	query := `
		UPDATE vendors
		SET name = $2,
		    contact_email = $3,
		    phone = $4,
		    address = $5,
		    active = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, v.ID, v.Name, v.ContactEmail, v.Phone, v.Address, v.Active).Scan(&v.UpdatedAt)
	if err == pgx.ErrNoRows {
		return errors.NotFound("vendor", v.ID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return errors.New(errors.ErrCodeConflict, "vendor name already exists")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update vendor")
	}
	return nil
}

func scanVendor(row rowScanner) (*Vendor, error) {
	v := &Vendor{}
	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.ContactEmail,
		&v.Phone,
		&v.Address,
		&v.Active,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}
