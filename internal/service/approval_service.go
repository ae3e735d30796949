package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pesio-ai/be-procurement/internal/client"
	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/repository"
	"github.com/pesio-ai/be-procurement/internal/routing"
)

// Decisions an approver can take on a stage.
const (
	DecisionApprove = "approve"
	DecisionDeny    = "deny"
)

// ApprovalService records stage decisions and keeps request status in step
// with them.
type ApprovalService struct {
	store    repository.WorkflowStore
	stages   StageReader
	notifier Notifier
	log      *logger.Logger
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(
	store repository.WorkflowStore,
	stages StageReader,
	notifier Notifier,
	log *logger.Logger,
) *ApprovalService {
	return &ApprovalService{
		store:    store,
		stages:   stages,
		notifier: notifier,
		log:      log,
	}
}

// DecideStageInput represents a decision on one stage of a request
type DecideStageInput struct {
	RequestID  string  `json:"request_id"`
	StageIndex int     `json:"stage_index"`
	Decision   string  `json:"decision"`
	Comment    *string `json:"comment"`
}

// DecisionResult is the outcome of DecideStage.
type DecisionResult struct {
	Request       *repository.ProcurementRequest `json:"request"`
	StatusChanged bool                           `json:"status_changed"`
}

// ── Decide ────────────────────────────────────────────────────────────────────

// DecideStage approves or denies a pending stage and recomputes the request
// status in the same transaction. Any stage may be decided in any order.
func (s *ApprovalService) DecideStage(ctx context.Context, actor *auth.UserContext, in *DecideStageInput) (*DecisionResult, error) {
	stageStatus, err := decisionStatus(in.Decision)
	if err != nil {
		return nil, err
	}
	if in.StageIndex < 0 {
		return nil, errors.InvalidInput("stage_index", "stage index cannot be negative")
	}
	comment := trimmedOrNil(in.Comment)
	if stageStatus == repository.StatusDenied && comment == nil {
		return nil, errors.InvalidInput("comment", "a comment is required to deny a stage")
	}

	var (
		req          *repository.ProcurementRequest
		statusBefore string
		changed      bool
	)
	err = s.store.InTransaction(ctx, func(tx repository.WorkflowTx) error {
		var err error
		req, err = tx.LockForUpdate(ctx, in.RequestID)
		if err != nil {
			return err
		}
		statusBefore = req.Status
		if req.Status != repository.StatusPending {
			return errors.New(errors.ErrCodeConflict,
				fmt.Sprintf("request is not pending (status: %s)", req.Status))
		}

		stage, err := tx.GetStage(ctx, in.RequestID, in.StageIndex)
		if err != nil {
			return err
		}
		if stage.Status != repository.StatusPending {
			return errors.New(errors.ErrCodeConflict,
				fmt.Sprintf("stage %d is not pending (status: %s)", in.StageIndex, stage.Status))
		}
		if err := assertCanAct(stage, actor); err != nil {
			return err
		}

		if err := tx.UpdateStageStatus(ctx, in.RequestID, in.StageIndex, stageStatus, actor.UserID, comment); err != nil {
			return err
		}

		status, written, err := routing.RecomputeStatus(ctx, tx, in.RequestID)
		if err != nil {
			return err
		}
		if written {
			req.Status = status
		}
		changed = req.Status != statusBefore

		action := repository.AuditApproved
		if stageStatus == repository.StatusDenied {
			action = repository.AuditDenied
		}
		metadata := map[string]interface{}{"role_required": stage.RoleRequired}
		if comment != nil {
			metadata["comment"] = *comment
		}
		if err := tx.AppendAudit(ctx, &repository.AuditEntry{
			RequestID:    in.RequestID,
			StageIndex:   intPtr(in.StageIndex),
			Action:       action,
			PerformedBy:  actor.UserID,
			StatusBefore: strPtr(statusBefore),
			StatusAfter:  strPtr(req.Status),
			Metadata:     metadata,
		}); err != nil {
			return err
		}

		if changed {
			if err := tx.AppendAudit(ctx, &repository.AuditEntry{
				RequestID:    in.RequestID,
				Action:       repository.AuditResolved,
				PerformedBy:  actor.UserID,
				StatusBefore: strPtr(statusBefore),
				StatusAfter:  strPtr(req.Status),
			}); err != nil {
				return err
			}
		}

		req.Stages, err = tx.ReadStages(ctx, in.RequestID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", in.RequestID).
		Int("stage_index", in.StageIndex).
		Str("decision", in.Decision).
		Str("acted_by", actor.UserID).
		Str("request_status", req.Status).
		Msg("Approval stage decided")

	if changed {
		event := client.EventRequestApproved
		if req.Status == repository.StatusDenied {
			event = client.EventRequestDenied
		}
		s.notifier.PublishRequestEvent(ctx, event, req.ID, actor.UserID, []string{req.RequesterID},
			map[string]interface{}{"title": req.Title, "status": req.Status})
	}

	return &DecisionResult{Request: req, StatusChanged: changed}, nil
}

// ── Query helpers ─────────────────────────────────────────────────────────────

// ListPending returns pending stages the actor can decide. Admins see every
// pending stage.
func (s *ApprovalService) ListPending(ctx context.Context, actor *auth.UserContext) ([]*repository.PendingStage, error) {
	var role *string
	if actor.Role != auth.RoleAdmin {
		role = &actor.Role
	}
	return s.stages.ListPending(ctx, role)
}

// ── Authorization helper ──────────────────────────────────────────────────────

// assertCanAct checks that the actor holds the stage's role. Admins may act
// on any stage.
func assertCanAct(stage *repository.RequestApprovalStage, actor *auth.UserContext) error {
	if actor.Role == auth.RoleAdmin || actor.Role == stage.RoleRequired {
		return nil
	}
	return errors.Forbidden(fmt.Sprintf("stage %d requires role %s", stage.StageIndex, stage.RoleRequired))
}

func decisionStatus(decision string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case DecisionApprove:
		return repository.StatusApproved, nil
	case DecisionDeny:
		return repository.StatusDenied, nil
	default:
		return "", errors.InvalidInput("decision", "decision must be approve or deny")
	}
}
