package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/service"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Services groups the services exposed over HTTP.
type Services struct {
	Requests       *service.RequestService
	Approvals      *service.ApprovalService
	Catalog        *service.CatalogService
	PurchaseOrders *service.PurchaseOrderService
	Users          *service.UserService
	Dashboard      *service.DashboardService
}

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	requests       *service.RequestService
	approvals      *service.ApprovalService
	catalog        *service.CatalogService
	purchaseOrders *service.PurchaseOrderService
	users          *service.UserService
	dashboard      *service.DashboardService
	log            *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(svc Services, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		requests:       svc.Requests,
		approvals:      svc.Approvals,
		catalog:        svc.Catalog,
		purchaseOrders: svc.PurchaseOrders,
		users:          svc.Users,
		dashboard:      svc.Dashboard,
		log:            log,
	}
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
}

// WriteError renders err as {"error": {...}} with the status its code maps to.
// Internal failures are reported without their cause.
func WriteError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	body := errorBody{Code: errors.CodeOf(err), Message: err.Error()}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Field = appErr.Field
	}
	if status == http.StatusInternalServerError {
		body.Message = "internal server error"
	}

	writeJSON(w, status, map[string]errorBody{"error": body})
}

// writeError logs server-side failures before rendering them.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.HTTPStatus(err) == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	WriteError(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]errorBody{"error": {
		Code:    errors.ErrCodeInvalidInput,
		Message: "method not allowed",
	}})
}

// allowMethod rejects requests whose method is not m.
func allowMethod(w http.ResponseWriter, r *http.Request, m string) bool {
	if r.Method != m {
		methodNotAllowed(w)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid request body")
	}
	return nil
}

// requiredQuery returns the trimmed query parameter key or an INVALID_INPUT
// error naming it.
func requiredQuery(r *http.Request, key string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return "", errors.InvalidInput(key, key+" is required")
	}
	return v, nil
}

func optionalQuery(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}

// intQuery parses an integer query parameter; absent or malformed values
// yield 0 so service defaults apply.
func intQuery(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func boolQuery(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

func currentUser(r *http.Request) (*auth.UserContext, error) {
	return auth.GetUserContext(r.Context())
}

// Health reports liveness.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
