package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-procurement/internal/client"
	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/repository"
)

// poTransitions lists the allowed purchase order status changes.
var poTransitions = map[string][]string{
	repository.POStatusIssued: {repository.POStatusReceived, repository.POStatusCancelled},
}

// PurchaseOrderService issues and tracks purchase orders for approved requests
type PurchaseOrderService struct {
	orders   PurchaseOrderRepository
	requests RequestReader
	vendors  VendorRepository
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewPurchaseOrderService creates a new purchase order service
func NewPurchaseOrderService(
	orders PurchaseOrderRepository,
	requests RequestReader,
	vendors VendorRepository,
	notifier Notifier,
	log *logger.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		orders:   orders,
		requests: requests,
		vendors:  vendors,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// CreateFromRequest issues a purchase order for an approved request. A
// request gets at most one purchase order.
func (s *PurchaseOrderService) CreateFromRequest(ctx context.Context, actor *auth.UserContext, requestID string) (*repository.PurchaseOrder, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != repository.StatusApproved {
		return nil, errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("request is not approved (status: %s)", req.Status))
	}
	if req.VendorID == nil {
		return nil, errors.InvalidInput("vendor_id", "request has no vendor")
	}

	vendor, err := s.vendors.GetByID(ctx, *req.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.Active {
		return nil, errors.New(errors.ErrCodeConflict, "vendor is inactive")
	}

	po := &repository.PurchaseOrder{
		RequestID:   req.ID,
		VendorID:    vendor.ID,
		PONumber:    s.newPONumber(),
		AmountCents: req.AmountCents,
		Status:      repository.POStatusIssued,
		IssuedBy:    actor.UserID,
	}
	if err := s.orders.Create(ctx, po); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("po_id", po.ID).
		Str("po_number", po.PONumber).
		Str("request_id", req.ID).
		Int64("amount_cents", po.AmountCents).
		Msg("Purchase order issued")

	s.notifier.PublishPurchaseOrderEvent(ctx, client.EventPurchaseOrder, po.ID, actor.UserID,
		[]string{req.RequesterID},
		map[string]interface{}{"po_number": po.PONumber, "request_id": req.ID, "vendor": vendor.Name})

	return po, nil
}

// newPONumber returns PO-YYYYMMDD-XXXXXXXX.
func (s *PurchaseOrderService) newPONumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("PO-%s-%s", s.now().UTC().Format("20060102"), suffix)
}

// UpdateStatus moves a purchase order along issued → received | cancelled.
func (s *PurchaseOrderService) UpdateStatus(ctx context.Context, id, status string) (*repository.PurchaseOrder, error) {
	po, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(po.Status, status) {
		return nil, errors.InvalidInput("status",
			fmt.Sprintf("cannot change purchase order from %s to %s", po.Status, status))
	}

	if err := s.orders.UpdateStatus(ctx, id, po.Status, status); err != nil {
		return nil, err
	}

	s.log.Info().Str("po_id", id).Str("from", po.Status).Str("to", status).Msg("Purchase order status updated")
	po.Status = status
	return po, nil
}

// GetPurchaseOrder returns one purchase order
func (s *PurchaseOrderService) GetPurchaseOrder(ctx context.Context, id string) (*repository.PurchaseOrder, error) {
	return s.orders.GetByID(ctx, id)
}

// ListPurchaseOrders returns a page of purchase orders, newest first
func (s *PurchaseOrderService) ListPurchaseOrders(ctx context.Context, status *string, page, pageSize int) ([]*repository.PurchaseOrder, error) {
	_, _, limit, offset := normalizePage(page, pageSize)
	return s.orders.List(ctx, status, limit, offset)
}

func canTransition(from, to string) bool {
	for _, allowed := range poTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
