// Package routing decides which approval stages a procurement request must
// pass and derives the request's status from the decisions on those stages.
package routing

import (
	"context"

	"github.com/pesio-ai/be-procurement/internal/repository"
)

// RuleStore lists the rules a new request is routed against.
type RuleStore interface {
	ListActiveRules(ctx context.Context) ([]*repository.ApprovalRule, error)
}

// Input is the part of a request that rule selection looks at.
type Input struct {
	AmountCents int64
	CategoryID  *string
	VendorID    *string
}

// InputFor extracts the routing input from a request.
func InputFor(req *repository.ProcurementRequest) Input {
	return Input{
		AmountCents: req.AmountCents,
		CategoryID:  req.CategoryID,
		VendorID:    req.VendorID,
	}
}

// SelectRule returns the first rule in rules that matches in. Order matters:
// this is first match, not most specific match. Inactive rules never match,
// even if the caller forgot to filter them. A nil result means no rule
// applies and is not an error.
func SelectRule(in Input, rules []*repository.ApprovalRule) *repository.ApprovalRule {
	for _, rule := range rules {
		if Matches(in, rule) {
			return rule
		}
	}
	return nil
}

// Matches reports whether a single rule applies to in. Amount bounds are
// inclusive on both ends.
func Matches(in Input, rule *repository.ApprovalRule) bool {
	if rule == nil || !rule.Active {
		return false
	}
	if in.AmountCents < rule.MinAmount {
		return false
	}
	if rule.MaxAmount != nil && in.AmountCents > *rule.MaxAmount {
		return false
	}
	if !scopeMatches(rule.CategoryID, in.CategoryID) {
		return false
	}
	return scopeMatches(rule.VendorID, in.VendorID)
}

// scopeMatches treats an unset value on either side as a wildcard.
func scopeMatches(ruleValue, requestValue *string) bool {
	if ruleValue == nil || requestValue == nil {
		return true
	}
	return *ruleValue == *requestValue
}
