package service

import (
	"context"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
)

// DashboardService builds the summary shown on the landing page
type DashboardService struct {
	requests RequestReader
	stages   StageReader
	perms    PermissionChecker
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(requests RequestReader, stages StageReader, perms PermissionChecker) *DashboardService {
	return &DashboardService{requests: requests, stages: stages, perms: perms}
}

// Summary is the dashboard payload
type Summary struct {
	RequestsByStatus map[string]int64 `json:"requests_by_status"`
	AwaitingMe       int              `json:"awaiting_me"`
}

// Summary counts requests per status, scoped to the actor's own requests
// unless they may read all, and the stages awaiting the actor's decision.
func (s *DashboardService) Summary(ctx context.Context, actor *auth.UserContext) (*Summary, error) {
	var requesterID *string
	if !allowed(s.perms, actor, "requests", "read_all") {
		requesterID = &actor.UserID
	}

	counts, err := s.requests.CountByStatus(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	out := &Summary{RequestsByStatus: counts}
	if allowed(s.perms, actor, "approvals", "read") {
		var role *string
		if actor.Role != auth.RoleAdmin {
			role = &actor.Role
		}
		pending, err := s.stages.ListPending(ctx, role)
		if err != nil {
			return nil, err
		}
		out.AwaitingMe = len(pending)
	}
	return out, nil
}
