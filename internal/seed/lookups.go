package seed

import (
	"context"

	"github.com/pesio-ai/be-procurement/internal/repository"
)

// RepositoryLookups implements Lookups over the Postgres repositories.
type RepositoryLookups struct {
	Users      *repository.UserRepository
	Vendors    *repository.VendorRepository
	Categories *repository.CategoryRepository
	Rules      *repository.ApprovalRulesRepository
}

func (l *RepositoryLookups) FindUser(ctx context.Context, email string) (*repository.User, error) {
	return l.Users.GetByEmail(ctx, email)
}

func (l *RepositoryLookups) FindVendor(ctx context.Context, name string) (*repository.Vendor, error) {
	return l.Vendors.GetByName(ctx, name)
}

func (l *RepositoryLookups) FindCategory(ctx context.Context, name string) (*repository.Category, error) {
	return l.Categories.GetByName(ctx, name)
}

func (l *RepositoryLookups) ListRules(ctx context.Context) ([]*repository.ApprovalRule, error) {
	return l.Rules.List(ctx, false)
}
