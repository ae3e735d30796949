// Package seed loads reference data (accounts, vendors, categories and
// approval rules) from a YAML file. Seeding is idempotent: records whose
// natural key (email or name) already exists are skipped.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/repository"
	"github.com/pesio-ai/be-procurement/internal/service"
)

// File is the YAML document layout.
type File struct {
	Users      []User     `yaml:"users"`
	Vendors    []Vendor   `yaml:"vendors"`
	Categories []Category `yaml:"categories"`
	Rules      []Rule     `yaml:"rules"`
}

type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Vendor struct {
	Name         string  `yaml:"name"`
	ContactEmail *string `yaml:"contact_email"`
	Phone        *string `yaml:"phone"`
	Address      *string `yaml:"address"`
	Active       *bool   `yaml:"active"` // defaults to true
}

type Category struct {
	Name        string  `yaml:"name"`
	Description *string `yaml:"description"`
}

// Rule references its category and vendor by name.
type Rule struct {
	Name      string   `yaml:"name"`
	Active    *bool    `yaml:"active"` // defaults to true
	MinAmount int64    `yaml:"min_amount"`
	MaxAmount *int64   `yaml:"max_amount"`
	Category  string   `yaml:"category"`
	Vendor    string   `yaml:"vendor"`
	Stages    []string `yaml:"stages"`
	Priority  int      `yaml:"priority"`
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(b []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	return &f, nil
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(b)
}

// Lookups find existing records by natural key.
type Lookups interface {
	FindUser(ctx context.Context, email string) (*repository.User, error)
	FindVendor(ctx context.Context, name string) (*repository.Vendor, error)
	FindCategory(ctx context.Context, name string) (*repository.Category, error)
	ListRules(ctx context.Context) ([]*repository.ApprovalRule, error)
}

// Catalog creates catalog records. Implemented by service.CatalogService.
type Catalog interface {
	CreateVendor(ctx context.Context, in *service.VendorInput) (*repository.Vendor, error)
	CreateCategory(ctx context.Context, in *service.CategoryInput) (*repository.Category, error)
	CreateRule(ctx context.Context, in *service.RuleInput) (*repository.ApprovalRule, error)
}

// Accounts creates users. Implemented by service.UserService.
type Accounts interface {
	Register(ctx context.Context, actor *auth.UserContext, in *service.RegisterInput) (*repository.User, error)
}

// Report counts what a run created and skipped, per kind.
type Report struct {
	Created map[string]int
	Skipped map[string]int
}

func newReport() *Report {
	return &Report{Created: map[string]int{}, Skipped: map[string]int{}}
}

// Seeder applies seed files.
type Seeder struct {
	lookups  Lookups
	catalog  Catalog
	accounts Accounts
	log      *logger.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(lookups Lookups, catalog Catalog, accounts Accounts, log *logger.Logger) *Seeder {
	return &Seeder{lookups: lookups, catalog: catalog, accounts: accounts, log: log}
}

// operator is the principal seeding runs as; it may create any role.
var operator = &auth.UserContext{UserID: "seed", Role: auth.RoleAdmin}

// Apply creates every record in f that does not exist yet. Categories and
// vendors are applied before rules so rules can reference them.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Report, error) {
	rep := newReport()

	for _, u := range f.Users {
		if err := s.applyUser(ctx, u, rep); err != nil {
			return rep, err
		}
	}
	for _, v := range f.Vendors {
		if err := s.applyVendor(ctx, v, rep); err != nil {
			return rep, err
		}
	}
	for _, c := range f.Categories {
		if err := s.applyCategory(ctx, c, rep); err != nil {
			return rep, err
		}
	}

	existing, err := s.lookups.ListRules(ctx)
	if err != nil {
		return rep, err
	}
	names := make(map[string]bool, len(existing))
	for _, r := range existing {
		names[r.Name] = true
	}
	for _, r := range f.Rules {
		if err := s.applyRule(ctx, r, names, rep); err != nil {
			return rep, err
		}
	}

	s.log.Info().
		Interface("created", rep.Created).
		Interface("skipped", rep.Skipped).
		Msg("Seed applied")
	return rep, nil
}

func (s *Seeder) applyUser(ctx context.Context, u User, rep *Report) error {
	found, err := exists(s.lookups.FindUser(ctx, u.Email))
	if err != nil {
		return err
	}
	if found {
		rep.Skipped["users"]++
		return nil
	}

	if _, err := s.accounts.Register(ctx, operator, &service.RegisterInput{
		Name: u.Name, Email: u.Email, Password: u.Password, Role: u.Role,
	}); err != nil {
		return fmt.Errorf("seed: user %q: %w", u.Email, err)
	}
	rep.Created["users"]++
	return nil
}

func (s *Seeder) applyVendor(ctx context.Context, v Vendor, rep *Report) error {
	found, err := exists(s.lookups.FindVendor(ctx, strings.TrimSpace(v.Name)))
	if err != nil {
		return err
	}
	if found {
		rep.Skipped["vendors"]++
		return nil
	}

	if _, err := s.catalog.CreateVendor(ctx, &service.VendorInput{
		Name:         v.Name,
		ContactEmail: v.ContactEmail,
		Phone:        v.Phone,
		Address:      v.Address,
		Active:       v.Active == nil || *v.Active,
	}); err != nil {
		return fmt.Errorf("seed: vendor %q: %w", v.Name, err)
	}
	rep.Created["vendors"]++
	return nil
}

func (s *Seeder) applyCategory(ctx context.Context, c Category, rep *Report) error {
	found, err := exists(s.lookups.FindCategory(ctx, strings.TrimSpace(c.Name)))
	if err != nil {
		return err
	}
	if found {
		rep.Skipped["categories"]++
		return nil
	}

	if _, err := s.catalog.CreateCategory(ctx, &service.CategoryInput{Name: c.Name, Description: c.Description}); err != nil {
		return fmt.Errorf("seed: category %q: %w", c.Name, err)
	}
	rep.Created["categories"]++
	return nil
}

func (s *Seeder) applyRule(ctx context.Context, r Rule, names map[string]bool, rep *Report) error {
	name := strings.TrimSpace(r.Name)
	if names[name] {
		rep.Skipped["rules"]++
		return nil
	}

	in := &service.RuleInput{
		Name:      name,
		Active:    r.Active == nil || *r.Active,
		MinAmount: r.MinAmount,
		MaxAmount: r.MaxAmount,
		Stages:    r.Stages,
		Priority:  r.Priority,
	}
	if r.Category != "" {
		c, err := s.lookups.FindCategory(ctx, r.Category)
		if err != nil {
			return fmt.Errorf("seed: rule %q: category %q: %w", name, r.Category, err)
		}
		in.CategoryID = &c.ID
	}
	if r.Vendor != "" {
		v, err := s.lookups.FindVendor(ctx, r.Vendor)
		if err != nil {
			return fmt.Errorf("seed: rule %q: vendor %q: %w", name, r.Vendor, err)
		}
		in.VendorID = &v.ID
	}

	if _, err := s.catalog.CreateRule(ctx, in); err != nil {
		return fmt.Errorf("seed: rule %q: %w", name, err)
	}
	names[name] = true
	rep.Created["rules"]++
	return nil
}

// exists turns a lookup result into found/not-found, passing through any
// other failure.
func exists[T any](v T, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errors.ErrCodeNotFound) {
		return false, nil
	}
	return false, err
}
