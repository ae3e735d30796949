package routing

import (
	"context"

	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/repository"
)

// RouteStore is what routing a new request needs from the transaction it
// runs in.
type RouteStore interface {
	RuleStore
	StageWriter
}

// Router routes newly created requests to their approval stages.
type Router struct {
	fallbackRole string
	log          *logger.Logger
}

// NewRouter creates a Router. fallbackRole is the single stage given to a
// request no rule matches; empty leaves such requests without stages.
func NewRouter(fallbackRole string, log *logger.Logger) *Router {
	return &Router{fallbackRole: fallbackRole, log: log}
}

// Route selects a rule for req, resolves its stage roles and inserts them.
// It returns the matched rule (nil when none matched) and the roles that
// were materialized.
func (r *Router) Route(ctx context.Context, tx RouteStore, req *repository.ProcurementRequest) (*repository.ApprovalRule, []string, error) {
	rules, err := tx.ListActiveRules(ctx)
	if err != nil {
		return nil, nil, err
	}

	rule := SelectRule(InputFor(req), rules)
	stages := r.resolveStages(rule)

	if err := MaterializeStages(ctx, tx, req.ID, stages); err != nil {
		return nil, nil, err
	}

	event := r.log.Debug().
		Str("request_id", req.ID).
		Int64("amount_cents", req.AmountCents).
		Int("stages", len(stages))
	if rule != nil {
		event = event.Str("rule_id", rule.ID)
	}
	event.Msg("Request routed")

	return rule, stages, nil
}

// resolveStages returns a copy of the rule's roles. A matched rule with no
// roles yields no stages; only a missing rule falls back.
func (r *Router) resolveStages(rule *repository.ApprovalRule) []string {
	if rule != nil {
		return append([]string(nil), rule.Stages...)
	}
	if r.fallbackRole == "" {
		return nil
	}
	return []string{r.fallbackRole}
}
