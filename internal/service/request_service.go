package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pesio-ai/be-procurement/internal/client"
	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/repository"
	"github.com/pesio-ai/be-procurement/internal/routing"
)

const maxTitleLength = 200

// RequestService handles procurement request business logic
type RequestService struct {
	store      repository.WorkflowStore
	requests   RequestReader
	stages     StageReader
	audit      AuditReader
	vendors    VendorRepository
	categories CategoryRepository
	router     *routing.Router
	directory  RoleDirectory
	notifier   Notifier
	perms      PermissionChecker
	log        *logger.Logger
}

// RequestServiceDeps groups the collaborators of a RequestService.
type RequestServiceDeps struct {
	Store      repository.WorkflowStore
	Requests   RequestReader
	Stages     StageReader
	Audit      AuditReader
	Vendors    VendorRepository
	Categories CategoryRepository
	Router     *routing.Router
	Directory  RoleDirectory
	Notifier   Notifier
	Perms      PermissionChecker
}

// NewRequestService creates a new request service
func NewRequestService(deps RequestServiceDeps, log *logger.Logger) *RequestService {
	return &RequestService{
		store:      deps.Store,
		requests:   deps.Requests,
		stages:     deps.Stages,
		audit:      deps.Audit,
		vendors:    deps.Vendors,
		categories: deps.Categories,
		router:     deps.Router,
		directory:  deps.Directory,
		notifier:   deps.Notifier,
		perms:      deps.Perms,
		log:        log,
	}
}

// CreateRequestInput represents a create request call
type CreateRequestInput struct {
	Title          string   `json:"title"`
	Description    *string  `json:"description"`
	AmountCents    int64    `json:"amount_cents"`
	CategoryID     *string  `json:"category_id"`
	VendorID       *string  `json:"vendor_id"`
	AttachmentURLs []string `json:"attachment_urls"`
}

// ListRequestsInput represents a list requests call
type ListRequestsInput struct {
	Status      *string
	RequesterID *string
	CategoryID  *string
	VendorID    *string
	Page        int
	PageSize    int
}

// RequestPage is one page of requests
type RequestPage struct {
	Requests []*repository.ProcurementRequest `json:"requests"`
	Total    int64                            `json:"total"`
	Page     int                              `json:"page"`
	PageSize int                              `json:"page_size"`
}

// CreateRequest validates and stores a new request, routes it to its approval
// stages and records the submission, all in one transaction.
func (s *RequestService) CreateRequest(ctx context.Context, actor *auth.UserContext, in *CreateRequestInput) (*repository.ProcurementRequest, error) {
	if err := s.validateCreate(ctx, in); err != nil {
		return nil, err
	}

	req := &repository.ProcurementRequest{
		RequesterID:    actor.UserID,
		Title:          strings.TrimSpace(in.Title),
		Description:    trimmedOrNil(in.Description),
		AmountCents:    in.AmountCents,
		CategoryID:     in.CategoryID,
		VendorID:       in.VendorID,
		Status:         repository.StatusPending,
		AttachmentURLs: in.AttachmentURLs,
	}

	var stageRoles []string
	err := s.store.InTransaction(ctx, func(tx repository.WorkflowTx) error {
		if err := tx.InsertRequest(ctx, req); err != nil {
			return err
		}

		rule, roles, err := s.router.Route(ctx, tx, req)
		if err != nil {
			return err
		}
		stageRoles = roles

		metadata := map[string]interface{}{
			"amount_cents": req.AmountCents,
			"stages":       roles,
		}
		if rule != nil {
			req.RuleID = &rule.ID
			if err := tx.SetRule(ctx, req.ID, req.RuleID); err != nil {
				return err
			}
			metadata["rule_id"] = rule.ID
			metadata["rule_name"] = rule.Name
		}

		if err := tx.AppendAudit(ctx, &repository.AuditEntry{
			RequestID:   req.ID,
			Action:      repository.AuditSubmitted,
			PerformedBy: actor.UserID,
			StatusAfter: strPtr(req.Status),
			Metadata:    metadata,
		}); err != nil {
			return err
		}

		req.Stages, err = tx.ReadStages(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", req.ID).
		Str("requester_id", req.RequesterID).
		Int64("amount_cents", req.AmountCents).
		Int("stages", len(stageRoles)).
		Msg("Procurement request created")

	s.notifySubmitted(ctx, req, actor.UserID, stageRoles)
	return req, nil
}

func (s *RequestService) validateCreate(ctx context.Context, in *CreateRequestInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return errors.InvalidInput("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return errors.InvalidInput("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if in.AmountCents < 0 {
		return errors.InvalidInput("amount_cents", "amount cannot be negative")
	}

	if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, errors.ErrCodeNotFound) {
				return errors.InvalidInput("category_id", "category does not exist")
			}
			return err
		}
	}

	if in.VendorID != nil {
		vendor, err := s.vendors.GetByID(ctx, *in.VendorID)
		if err != nil {
			if errors.Is(err, errors.ErrCodeNotFound) {
				return errors.InvalidInput("vendor_id", "vendor does not exist")
			}
			return err
		}
		if !vendor.Active {
			return errors.InvalidInput("vendor_id", "vendor is inactive")
		}
	}

	for _, raw := range in.AttachmentURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.InvalidInput("attachment_urls", "attachment must be an absolute URL")
		}
	}
	return nil
}

// notifySubmitted tells every holder of a stage role that a decision is
// needed. Stages are not gated, so all roles are notified at once.
func (s *RequestService) notifySubmitted(ctx context.Context, req *repository.ProcurementRequest, actorID string, roles []string) {
	payload := map[string]interface{}{
		"title":        req.Title,
		"amount_cents": req.AmountCents,
	}
	s.notifier.PublishRequestEvent(ctx, client.EventRequestSubmitted, req.ID, actorID, []string{req.RequesterID}, payload)

	seen := make(map[string]bool, len(roles))
	for _, role := range roles {
		if seen[role] {
			continue
		}
		seen[role] = true

		recipients, err := s.directory.ListIDsByRole(ctx, role)
		if err != nil {
			s.log.Warn().Err(err).Str("role", role).Msg("Could not resolve approvers for role")
			continue
		}
		s.notifier.PublishRequestEvent(ctx, client.EventApprovalRequired, req.ID, actorID, recipients, payload)
	}
}

// GetRequest returns a request with its stages. Requesters only see their
// own requests.
func (s *RequestService) GetRequest(ctx context.Context, actor *auth.UserContext, id string) (*repository.ProcurementRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canSee(actor, req) {
		return nil, errors.NotFound("request", id)
	}

	req.Stages, err = s.stages.ReadStages(ctx, id)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests returns a filtered page of requests. Callers without
// read_all on requests are limited to their own.
func (s *RequestService) ListRequests(ctx context.Context, actor *auth.UserContext, in *ListRequestsInput) (*RequestPage, error) {
	if in.Status != nil && !validRequestStatus(*in.Status) {
		return nil, errors.InvalidInput("status", "status must be pending, approved or denied")
	}

	page, pageSize, limit, offset := normalizePage(in.Page, in.PageSize)

	filter := repository.RequestFilter{
		RequesterID: in.RequesterID,
		Status:      in.Status,
		CategoryID:  in.CategoryID,
		VendorID:    in.VendorID,
		Limit:       limit,
		Offset:      offset,
	}
	if !allowed(s.perms, actor, "requests", "read_all") {
		filter.RequesterID = &actor.UserID
	}

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &RequestPage{Requests: requests, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetHistory returns the audit trail of a request, oldest first.
func (s *RequestService) GetHistory(ctx context.Context, actor *auth.UserContext, id string) ([]*repository.AuditEntry, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canSee(actor, req) {
		return nil, errors.NotFound("request", id)
	}
	return s.audit.ListByRequest(ctx, id)
}

func (s *RequestService) canSee(actor *auth.UserContext, req *repository.ProcurementRequest) bool {
	return req.RequesterID == actor.UserID || allowed(s.perms, actor, "requests", "read_all")
}

func validRequestStatus(status string) bool {
	switch status {
	case repository.StatusPending, repository.StatusApproved, repository.StatusDenied:
		return true
	}
	return false
}
