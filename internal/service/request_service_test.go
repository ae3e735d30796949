package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-procurement/internal/client"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/repository"
	"github.com/pesio-ai/be-procurement/internal/routing"
)

type requestFixture struct {
	db       *memDB
	notifier *recordingNotifier
	svc      *RequestService
}

func newRequestFixture(fallbackRole string, rules ...*repository.ApprovalRule) *requestFixture {
	db := newMemDB(rules...)
	notifier := &recordingNotifier{}
	svc := NewRequestService(RequestServiceDeps{
		Store:    db,
		Requests: db,
		Stages:   db,
		Audit:    db,
		Vendors: newMemVendors(
			&repository.Vendor{ID: "acme", Name: "Acme", Active: true},
			&repository.Vendor{ID: "defunct", Name: "Defunct", Active: false},
		),
		Categories: newMemCategories(&repository.Category{ID: "it", Name: "IT"}),
		Router:     routing.NewRouter(fallbackRole, logger.Nop()),
		Directory:  staticDirectory{"approver": {"appr-1", "appr-2"}, "admin": {"admin-1"}},
		Notifier:   notifier,
		Perms:      enforcer(),
	}, logger.Nop())
	return &requestFixture{db: db, notifier: notifier, svc: svc}
}

func activeRule(id string, minAmount int64, maxAmount *int64, stages ...string) *repository.ApprovalRule {
	return &repository.ApprovalRule{ID: id, Name: id, Active: true, MinAmount: minAmount, MaxAmount: maxAmount, Stages: stages}
}

func TestCreateRequest_RoutesToMatchingRule(t *testing.T) {
	f := newRequestFixture("admin",
		activeRule("small", 0, ptr(int64(500)), "approver"),
		activeRule("large", 0, nil, "approver", "admin"),
	)

	req, err := f.svc.CreateRequest(context.Background(), requester("u1"), &CreateRequestInput{
		Title:       "  Laptops  ",
		AmountCents: 2000,
		VendorID:    ptr("acme"),
		CategoryID:  ptr("it"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Laptops", req.Title)
	assert.Equal(t, repository.StatusPending, req.Status)
	require.NotNil(t, req.RuleID)
	assert.Equal(t, "large", *req.RuleID)
	require.Len(t, req.Stages, 2)
	assert.Equal(t, "approver", req.Stages[0].RoleRequired)
	assert.Equal(t, "admin", req.Stages[1].RoleRequired)

	stored := f.db.request(req.ID)
	require.NotNil(t, stored.RuleID)
	assert.Equal(t, []string{repository.AuditSubmitted}, f.db.auditActions(req.ID))

	assert.Equal(t, []string{
		client.EventRequestSubmitted,
		client.EventApprovalRequired,
		client.EventApprovalRequired,
	}, f.notifier.types())
	assert.Equal(t, []string{"appr-1", "appr-2"}, f.notifier.events[1].recipients)
}

func TestCreateRequest_FallbackWhenNoRuleMatches(t *testing.T) {
	f := newRequestFixture("admin", activeRule("tiny", 0, ptr(int64(10)), "approver"))

	req, err := f.svc.CreateRequest(context.Background(), requester("u1"), &CreateRequestInput{Title: "Desk", AmountCents: 50})
	require.NoError(t, err)

	assert.Nil(t, req.RuleID)
	require.Len(t, req.Stages, 1)
	assert.Equal(t, "admin", req.Stages[0].RoleRequired)
}

func TestCreateRequest_EmptyRuleLeavesRequestPendingWithoutStages(t *testing.T) {
	f := newRequestFixture("admin", activeRule("petty", 0, nil))

	req, err := f.svc.CreateRequest(context.Background(), requester("u1"), &CreateRequestInput{Title: "Pens", AmountCents: 5})
	require.NoError(t, err)

	assert.Empty(t, req.Stages)
	assert.Equal(t, repository.StatusPending, f.db.request(req.ID).Status)
}

func TestCreateRequest_StageFailureRollsBackEverything(t *testing.T) {
	f := newRequestFixture("", activeRule("r", 0, nil, "approver", "admin"))
	f.db.failStep = "insert_stage_1"

	_, err := f.svc.CreateRequest(context.Background(), requester("u1"), &CreateRequestInput{Title: "Chairs", AmountCents: 100})
	require.Error(t, err)

	page, err := f.svc.ListRequests(context.Background(), admin("a"), &ListRequestsInput{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, f.notifier.events)
}

func TestCreateRequest_Validation(t *testing.T) {
	f := newRequestFixture("")

	tests := []struct {
		name  string
		in    CreateRequestInput
		field string
	}{
		{"missing title", CreateRequestInput{Title: "  ", AmountCents: 1}, "title"},
		{"negative amount", CreateRequestInput{Title: "x", AmountCents: -1}, "amount_cents"},
		{"unknown category", CreateRequestInput{Title: "x", CategoryID: ptr("nope")}, "category_id"},
		{"unknown vendor", CreateRequestInput{Title: "x", VendorID: ptr("nope")}, "vendor_id"},
		{"inactive vendor", CreateRequestInput{Title: "x", VendorID: ptr("defunct")}, "vendor_id"},
		{"relative attachment", CreateRequestInput{Title: "x", AttachmentURLs: []string{"/tmp/a.pdf"}}, "attachment_urls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateRequest(context.Background(), requester("u1"), &tt.in)

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, errors.ErrCodeInvalidInput, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestGetRequest_RequesterSeesOnlyOwn(t *testing.T) {
	f := newRequestFixture("approver")
	req, err := f.svc.CreateRequest(context.Background(), requester("owner"), &CreateRequestInput{Title: "Monitor", AmountCents: 300})
	require.NoError(t, err)

	got, err := f.svc.GetRequest(context.Background(), requester("owner"), req.ID)
	require.NoError(t, err)
	assert.Len(t, got.Stages, 1)

	_, err = f.svc.GetRequest(context.Background(), requester("someone-else"), req.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	_, err = f.svc.GetRequest(context.Background(), approver("appr-1"), req.ID)
	assert.NoError(t, err)
}

func TestListRequests_ScopesRequesters(t *testing.T) {
	f := newRequestFixture("")
	ctx := context.Background()
	for _, owner := range []string{"a", "a", "b"} {
		_, err := f.svc.CreateRequest(ctx, requester(owner), &CreateRequestInput{Title: "t", AmountCents: 1})
		require.NoError(t, err)
	}

	page, err := f.svc.ListRequests(ctx, requester("a"), &ListRequestsInput{RequesterID: ptr("b")})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = f.svc.ListRequests(ctx, admin("root"), &ListRequestsInput{PageSize: 500})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.PageSize)

	_, err = f.svc.ListRequests(ctx, admin("root"), &ListRequestsInput{Status: ptr("archived")})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestGetHistory_ReturnsAuditTrail(t *testing.T) {
	f := newRequestFixture("approver")
	req, err := f.svc.CreateRequest(context.Background(), requester("u1"), &CreateRequestInput{Title: "Cables", AmountCents: 10})
	require.NoError(t, err)

	entries, err := f.svc.GetHistory(context.Background(), requester("u1"), req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, repository.AuditSubmitted, entries[0].Action)
	assert.Equal(t, []string{"approver"}, entries[0].Metadata["stages"])
}
