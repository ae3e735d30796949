package handler

import (
	"net/http"
)

type createPurchaseOrderRequest struct {
	RequestID string `json:"request_id"`
}

type purchaseOrderStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreatePurchaseOrder issues a purchase order for an approved request
func (h *HTTPHandler) CreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req createPurchaseOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	po, err := h.purchaseOrders.CreateFromRequest(r.Context(), actor, req.RequestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, po)
}

// ListPurchaseOrders handles list purchase orders HTTP requests
func (h *HTTPHandler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	page, pageSize := intQuery(r, "page"), intQuery(r, "page_size")

	orders, err := h.purchaseOrders.ListPurchaseOrders(r.Context(), optionalQuery(r, "status"), page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"purchase_orders": orders})
}

// GetPurchaseOrder handles get purchase order HTTP requests
func (h *HTTPHandler) GetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	po, err := h.purchaseOrders.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, po)
}

// UpdatePurchaseOrderStatus moves a purchase order to received or cancelled
func (h *HTTPHandler) UpdatePurchaseOrderStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req purchaseOrderStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	po, err := h.purchaseOrders.UpdateStatus(r.Context(), req.ID, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, po)
}
