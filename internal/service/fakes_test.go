package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/authz"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/repository"
)

// memDB is an in-memory WorkflowStore. InTransaction runs fn against a copy
// of the state and only publishes it when fn succeeds.
type memDB struct {
	mu       sync.Mutex
	state    *memState
	failStep string
}

type memState struct {
	seq      int
	rules    []*repository.ApprovalRule
	requests map[string]*repository.ProcurementRequest
	stages   map[string][]*repository.RequestApprovalStage
	audit    []*repository.AuditEntry
}

func newMemDB(rules ...*repository.ApprovalRule) *memDB {
	return &memDB{state: &memState{
		rules:    rules,
		requests: map[string]*repository.ProcurementRequest{},
		stages:   map[string][]*repository.RequestApprovalStage{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		seq:      s.seq,
		rules:    s.rules,
		requests: make(map[string]*repository.ProcurementRequest, len(s.requests)),
		stages:   make(map[string][]*repository.RequestApprovalStage, len(s.stages)),
		audit:    append([]*repository.AuditEntry(nil), s.audit...),
	}
	for id, r := range s.requests {
		cp := *r
		c.requests[id] = &cp
	}
	for id, list := range s.stages {
		out := make([]*repository.RequestApprovalStage, len(list))
		for i, st := range list {
			cp := *st
			out[i] = &cp
		}
		c.stages[id] = out
	}
	return c
}

func (m *memDB) InTransaction(ctx context.Context, fn func(tx repository.WorkflowTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{state: m.state.clone(), failStep: m.failStep}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

// The read side, used as RequestReader, StageReader and AuditReader.

func (m *memDB) GetByID(_ context.Context, id string) (*repository.ProcurementRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.requests[id]
	if !ok {
		return nil, errors.NotFound("request", id)
	}
	cp := *r
	return &cp, nil
}

func (m *memDB) List(_ context.Context, f repository.RequestFilter) ([]*repository.ProcurementRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*repository.ProcurementRequest, 0)
	for _, r := range m.state.requests {
		if f.RequesterID != nil && r.RequesterID != *f.RequesterID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if f.Offset < len(out) {
		out = out[f.Offset:]
	} else {
		out = out[:0]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *memDB) CountByStatus(_ context.Context, requesterID *string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{repository.StatusPending: 0, repository.StatusApproved: 0, repository.StatusDenied: 0}
	for _, r := range m.state.requests {
		if requesterID != nil && r.RequesterID != *requesterID {
			continue
		}
		counts[r.Status]++
	}
	return counts, nil
}

func (m *memDB) ReadStages(_ context.Context, requestID string) ([]*repository.RequestApprovalStage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*repository.RequestApprovalStage(nil), m.state.stages[requestID]...), nil
}

func (m *memDB) ListPending(_ context.Context, role *string) ([]*repository.PendingStage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*repository.PendingStage, 0)
	for id, list := range m.state.stages {
		req := m.state.requests[id]
		if req.Status != repository.StatusPending {
			continue
		}
		for _, st := range list {
			if st.Status != repository.StatusPending || (role != nil && st.RoleRequired != *role) {
				continue
			}
			out = append(out, &repository.PendingStage{RequestApprovalStage: *st, RequestTitle: req.Title})
		}
	}
	return out, nil
}

func (m *memDB) ListByRequest(_ context.Context, requestID string) ([]*repository.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*repository.AuditEntry, 0)
	for _, e := range m.state.audit {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memDB) request(id string) *repository.ProcurementRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.requests[id]
}

func (m *memDB) auditActions(requestID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.state.audit {
		if e.RequestID == requestID {
			out = append(out, e.Action)
		}
	}
	return out
}

// memTx implements repository.WorkflowTx over a cloned state.
type memTx struct {
	state    *memState
	failStep string
}

func (t *memTx) fail(step string) error {
	if t.failStep == step {
		return errors.New(errors.ErrCodeInternal, step+" failed")
	}
	return nil
}

func (t *memTx) ListActiveRules(context.Context) ([]*repository.ApprovalRule, error) {
	return t.state.rules, t.fail("list_rules")
}

func (t *memTx) InsertRequest(_ context.Context, req *repository.ProcurementRequest) error {
	if err := t.fail("insert_request"); err != nil {
		return err
	}
	t.state.seq++
	req.ID = fmt.Sprintf("req-%d", t.state.seq)
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	t.state.requests[req.ID] = &cp
	return nil
}

func (t *memTx) LockForUpdate(_ context.Context, id string) (*repository.ProcurementRequest, error) {
	r, ok := t.state.requests[id]
	if !ok {
		return nil, errors.NotFound("request", id)
	}
	cp := *r
	return &cp, nil
}

func (t *memTx) SetRule(_ context.Context, id string, ruleID *string) error {
	t.state.requests[id].RuleID = ruleID
	return nil
}

func (t *memTx) UpdateRequestStatus(_ context.Context, id, status string) error {
	r, ok := t.state.requests[id]
	if !ok {
		return errors.NotFound("request", id)
	}
	r.Status = status
	return nil
}

func (t *memTx) InsertStage(_ context.Context, requestID string, idx int, role, status string) error {
	if err := t.fail(fmt.Sprintf("insert_stage_%d", idx)); err != nil {
		return err
	}
	t.state.stages[requestID] = append(t.state.stages[requestID], &repository.RequestApprovalStage{
		RequestID: requestID, StageIndex: idx, RoleRequired: role, Status: status,
	})
	return nil
}

func (t *memTx) ReadStages(_ context.Context, requestID string) ([]*repository.RequestApprovalStage, error) {
	return append([]*repository.RequestApprovalStage(nil), t.state.stages[requestID]...), nil
}

func (t *memTx) GetStage(_ context.Context, requestID string, idx int) (*repository.RequestApprovalStage, error) {
	for _, st := range t.state.stages[requestID] {
		if st.StageIndex == idx {
			cp := *st
			return &cp, nil
		}
	}
	return nil, errors.NotFound("approval_stage", fmt.Sprintf("%s/%d", requestID, idx))
}

func (t *memTx) UpdateStageStatus(_ context.Context, requestID string, idx int, status, actedBy string, comment *string) error {
	for _, st := range t.state.stages[requestID] {
		if st.StageIndex == idx && st.Status == repository.StatusPending {
			now := time.Now()
			st.Status = status
			st.ActedBy = &actedBy
			st.ActedAt = &now
			st.Comment = comment
			return nil
		}
	}
	return errors.New(errors.ErrCodeConflict, "stage not found or already decided")
}

func (t *memTx) AppendAudit(_ context.Context, entry *repository.AuditEntry) error {
	if err := t.fail("audit"); err != nil {
		return err
	}
	entry.ID = fmt.Sprintf("audit-%d", len(t.state.audit)+1)
	entry.PerformedAt = time.Now()
	t.state.audit = append(t.state.audit, entry)
	return nil
}

// ── collaborators ─────────────────────────────────────────────────────────────

type publishedEvent struct {
	eventType  string
	resourceID string
	recipients []string
}

type recordingNotifier struct {
	events []publishedEvent
}

func (n *recordingNotifier) PublishRequestEvent(_ context.Context, eventType, requestID, _ string, recipients []string, _ map[string]interface{}) {
	n.events = append(n.events, publishedEvent{eventType, requestID, recipients})
}

func (n *recordingNotifier) PublishPurchaseOrderEvent(_ context.Context, eventType, poID, _ string, recipients []string, _ map[string]interface{}) {
	n.events = append(n.events, publishedEvent{eventType, poID, recipients})
}

func (n *recordingNotifier) types() []string {
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.eventType
	}
	return out
}

type staticDirectory map[string][]string

func (d staticDirectory) ListIDsByRole(_ context.Context, role string) ([]string, error) {
	return d[role], nil
}

type memVendors struct {
	byID map[string]*repository.Vendor
}

func newMemVendors(vendors ...*repository.Vendor) *memVendors {
	m := &memVendors{byID: map[string]*repository.Vendor{}}
	for _, v := range vendors {
		m.byID[v.ID] = v
	}
	return m
}

func (m *memVendors) Create(_ context.Context, v *repository.Vendor) error {
	for _, existing := range m.byID {
		if existing.Name == v.Name {
			return errors.New(errors.ErrCodeConflict, "vendor name already exists")
		}
	}
	v.ID = fmt.Sprintf("vendor-%d", len(m.byID)+1)
	m.byID[v.ID] = v
	return nil
}

func (m *memVendors) GetByID(_ context.Context, id string) (*repository.Vendor, error) {
	v, ok := m.byID[id]
	if !ok {
		return nil, errors.NotFound("vendor", id)
	}
	return v, nil
}

func (m *memVendors) List(context.Context, bool) ([]*repository.Vendor, error) {
	out := make([]*repository.Vendor, 0, len(m.byID))
	for _, v := range m.byID {
		out = append(out, v)
	}
	return out, nil
}

func (m *memVendors) Update(_ context.Context, v *repository.Vendor) error {
	if _, ok := m.byID[v.ID]; !ok {
		return errors.NotFound("vendor", v.ID)
	}
	m.byID[v.ID] = v
	return nil
}

type memCategories struct {
	byID map[string]*repository.Category
}

func newMemCategories(categories ...*repository.Category) *memCategories {
	m := &memCategories{byID: map[string]*repository.Category{}}
	for _, c := range categories {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memCategories) Create(_ context.Context, c *repository.Category) error {
	c.ID = fmt.Sprintf("cat-%d", len(m.byID)+1)
	m.byID[c.ID] = c
	return nil
}

func (m *memCategories) GetByID(_ context.Context, id string) (*repository.Category, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, errors.NotFound("category", id)
	}
	cp := *c
	return &cp, nil
}

func (m *memCategories) List(context.Context) ([]*repository.Category, error) {
	out := make([]*repository.Category, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCategories) Update(_ context.Context, c *repository.Category) error {
	m.byID[c.ID] = c
	return nil
}

func (m *memCategories) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return errors.NotFound("category", id)
	}
	delete(m.byID, id)
	return nil
}

func enforcer() PermissionChecker {
	a, err := authz.NewDefaultAuthorizer(authz.ModeEnforce)
	if err != nil {
		panic(err)
	}
	return a
}

func requester(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Role: auth.RoleRequester}
}

func approver(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Role: auth.RoleApprover}
}

func admin(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Role: auth.RoleAdmin}
}

func ptr[T any](v T) *T { return &v }
