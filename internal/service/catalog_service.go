package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/repository"
)

const maxRoleLength = 64

// CatalogService manages the administrator-owned reference data: approval
// rules, vendors and categories.
type CatalogService struct {
	rules      RuleRepository
	vendors    VendorRepository
	categories CategoryRepository
	log        *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	rules RuleRepository,
	vendors VendorRepository,
	categories CategoryRepository,
	log *logger.Logger,
) *CatalogService {
	return &CatalogService{
		rules:      rules,
		vendors:    vendors,
		categories: categories,
		log:        log,
	}
}

// RuleInput represents a create or update rule call
type RuleInput struct {
	Name       string   `json:"name"`
	Active     bool     `json:"active"`
	MinAmount  int64    `json:"min_amount"`
	MaxAmount  *int64   `json:"max_amount"`
	CategoryID *string  `json:"category_id"`
	VendorID   *string  `json:"vendor_id"`
	Stages     []string `json:"stages"`
	Priority   int      `json:"priority"`
}

// VendorInput represents a create or update vendor call
type VendorInput struct {
	Name         string  `json:"name"`
	ContactEmail *string `json:"contact_email"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	Active       bool    `json:"active"`
}

// CategoryInput represents a create or update category call
type CategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// ── Rules ─────────────────────────────────────────────────────────────────────

// CreateRule validates and stores a new approval rule
func (s *CatalogService) CreateRule(ctx context.Context, in *RuleInput) (*repository.ApprovalRule, error) {
	rule, err := s.buildRule(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("rule_id", rule.ID).
		Str("name", rule.Name).
		Int("priority", rule.Priority).
		Int("stages", len(rule.Stages)).
		Msg("Approval rule created")
	return rule, nil
}

// UpdateRule replaces an existing rule's definition
func (s *CatalogService) UpdateRule(ctx context.Context, id string, in *RuleInput) (*repository.ApprovalRule, error) {
	existing, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rule, err := s.buildRule(ctx, in)
	if err != nil {
		return nil, err
	}
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt

	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, err
	}

	s.log.Info().Str("rule_id", rule.ID).Msg("Approval rule updated")
	return rule, nil
}

// GetRule returns one rule
func (s *CatalogService) GetRule(ctx context.Context, id string) (*repository.ApprovalRule, error) {
	return s.rules.GetByID(ctx, id)
}

// ListRules returns rules in evaluation order
func (s *CatalogService) ListRules(ctx context.Context, activeOnly bool) ([]*repository.ApprovalRule, error) {
	return s.rules.List(ctx, activeOnly)
}

// DeleteRule removes a rule. Stages already materialized from it are kept.
func (s *CatalogService) DeleteRule(ctx context.Context, id string) error {
	if err := s.rules.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("rule_id", id).Msg("Approval rule deleted")
	return nil
}

func (s *CatalogService) buildRule(ctx context.Context, in *RuleInput) (*repository.ApprovalRule, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.InvalidInput("name", "rule name is required")
	}
	if in.MinAmount < 0 {
		return nil, errors.InvalidInput("min_amount", "min amount cannot be negative")
	}
	if in.MaxAmount != nil && *in.MaxAmount < in.MinAmount {
		return nil, errors.InvalidInput("max_amount", "max amount cannot be below min amount")
	}

	stages := make([]string, 0, len(in.Stages))
	for i, role := range in.Stages {
		role = strings.TrimSpace(role)
		if role == "" {
			return nil, errors.InvalidInput("stages", fmt.Sprintf("stage %d has no role", i))
		}
		if len(role) > maxRoleLength {
			return nil, errors.InvalidInput("stages", fmt.Sprintf("stage %d role is too long", i))
		}
		stages = append(stages, role)
	}

	if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, errors.ErrCodeNotFound) {
				return nil, errors.InvalidInput("category_id", "category does not exist")
			}
			return nil, err
		}
	}
	if in.VendorID != nil {
		if _, err := s.vendors.GetByID(ctx, *in.VendorID); err != nil {
			if errors.Is(err, errors.ErrCodeNotFound) {
				return nil, errors.InvalidInput("vendor_id", "vendor does not exist")
			}
			return nil, err
		}
	}

	return &repository.ApprovalRule{
		Name:       name,
		Active:     in.Active,
		MinAmount:  in.MinAmount,
		MaxAmount:  in.MaxAmount,
		CategoryID: in.CategoryID,
		VendorID:   in.VendorID,
		Stages:     stages,
		Priority:   in.Priority,
	}, nil
}

// ── Vendors ───────────────────────────────────────────────────────────────────

// CreateVendor validates and stores a vendor
func (s *CatalogService) CreateVendor(ctx context.Context, in *VendorInput) (*repository.Vendor, error) {
	v, err := buildVendor(in)
	if err != nil {
		return nil, err
	}
	if err := s.vendors.Create(ctx, v); err != nil {
		return nil, err
	}
	s.log.Info().Str("vendor_id", v.ID).Str("name", v.Name).Msg("Vendor created")
	return v, nil
}

// UpdateVendor replaces a vendor's details. Setting Active to false
// deactivates the vendor for new requests.
func (s *CatalogService) UpdateVendor(ctx context.Context, id string, in *VendorInput) (*repository.Vendor, error) {
	existing, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := buildVendor(in)
	if err != nil {
		return nil, err
	}
	v.ID = existing.ID
	v.CreatedAt = existing.CreatedAt

	if err := s.vendors.Update(ctx, v); err != nil {
		return nil, err
	}
	if existing.Active && !v.Active {
		s.log.Info().Str("vendor_id", v.ID).Msg("Vendor deactivated")
	}
	return v, nil
}

// GetVendor returns one vendor
func (s *CatalogService) GetVendor(ctx context.Context, id string) (*repository.Vendor, error) {
	return s.vendors.GetByID(ctx, id)
}

// ListVendors returns vendors ordered by name
func (s *CatalogService) ListVendors(ctx context.Context, activeOnly bool) ([]*repository.Vendor, error) {
	return s.vendors.List(ctx, activeOnly)
}

func buildVendor(in *VendorInput) (*repository.Vendor, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.InvalidInput("name", "vendor name is required")
	}

	email := trimmedOrNil(in.ContactEmail)
	if email != nil {
		addr, err := mail.ParseAddress(*email)
		if err != nil || addr.Address != *email {
			return nil, errors.InvalidInput("contact_email", "invalid email address")
		}
	}

	return &repository.Vendor{
		Name:         name,
		ContactEmail: email,
		Phone:        trimmedOrNil(in.Phone),
		Address:      trimmedOrNil(in.Address),
		Active:       in.Active,
	}, nil
}

// ── Categories ────────────────────────────────────────────────────────────────

// CreateCategory validates and stores a category
func (s *CatalogService) CreateCategory(ctx context.Context, in *CategoryInput) (*repository.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.InvalidInput("name", "category name is required")
	}

	c := &repository.Category{Name: name, Description: trimmedOrNil(in.Description)}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info().Str("category_id", c.ID).Str("name", c.Name).Msg("Category created")
	return c, nil
}

// UpdateCategory renames or redescribes a category
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in *CategoryInput) (*repository.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.InvalidInput("name", "category name is required")
	}

	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.Description = trimmedOrNil(in.Description)
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory returns one category
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*repository.Category, error) {
	return s.categories.GetByID(ctx, id)
}

// ListCategories returns all categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]*repository.Category, error) {
	return s.categories.List(ctx)
}

// DeleteCategory removes an unreferenced category
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("category_id", id).Msg("Category deleted")
	return nil
}
