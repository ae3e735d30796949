package routing

import (
	"context"

	"github.com/pesio-ai/be-procurement/internal/repository"
)

// StatusStore reads a request's stages and writes its aggregate status.
type StatusStore interface {
	ReadStages(ctx context.Context, requestID string) ([]*repository.RequestApprovalStage, error)
	UpdateRequestStatus(ctx context.Context, id, status string) error
}

// FoldStatus derives a request status from its stages. Any denial wins
// regardless of position, then all-approved, otherwise pending. ok is false
// when there are no stages to derive from.
func FoldStatus(stages []*repository.RequestApprovalStage) (status string, ok bool) {
	if len(stages) == 0 {
		return "", false
	}

	allApproved := true
	for _, s := range stages {
		switch s.Status {
		case repository.StatusDenied:
			return repository.StatusDenied, true
		case repository.StatusApproved:
		default:
			allApproved = false
		}
	}
	if allApproved {
		return repository.StatusApproved, true
	}
	return repository.StatusPending, true
}

// RecomputeStatus rewrites the request's status from its current stages.
// With no stages it writes nothing and reports written=false. Call it in the
// transaction that changed a stage.
func RecomputeStatus(ctx context.Context, s StatusStore, requestID string) (status string, written bool, err error) {
	stages, err := s.ReadStages(ctx, requestID)
	if err != nil {
		return "", false, err
	}

	status, ok := FoldStatus(stages)
	if !ok {
		return "", false, nil
	}

	if err := s.UpdateRequestStatus(ctx, requestID, status); err != nil {
		return "", false, err
	}
	return status, true, nil
}
