package service

import (
	"strings"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/authz"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// normalizePage applies the listing defaults: page from 1, page_size 1..100
// defaulting to 50. It returns limit and offset.
func normalizePage(page, pageSize int) (int, int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, pageSize, (page - 1) * pageSize
}

// allowed reports whether the actor's role may perform action on object. In
// shadow mode a denial is treated as allowed.
func allowed(p PermissionChecker, actor *auth.UserContext, object, action string) bool {
	if p == nil || actor == nil {
		return false
	}
	ok, enforced, err := p.Authorize(authz.SubjectFromRole(actor.Role), object, action)
	if err != nil {
		return false
	}
	return ok || !enforced
}

// trimmedOrNil trims s and returns nil for an empty result.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
