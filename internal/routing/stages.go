package routing

import (
	"context"
	"fmt"

	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/repository"
)

// StageWriter creates stage rows.
type StageWriter interface {
	InsertStage(ctx context.Context, requestID string, stageIndex int, roleRequired, status string) error
}

// MaterializeStages inserts one pending stage per role, indexed from 0 in
// the order given. It only inserts and must run in the same transaction as
// the request insert, so a failed insert leaves no partial stage set behind.
func MaterializeStages(ctx context.Context, w StageWriter, requestID string, stages []string) error {
	for i, role := range stages {
		if err := w.InsertStage(ctx, requestID, i, role, repository.StatusPending); err != nil {
			return errors.Wrap(err, errors.CodeOf(err), fmt.Sprintf("failed to materialize stage %d", i))
		}
	}
	return nil
}
