package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/authz"
)

// Routes registers every HTTP endpoint on a new mux. Protected routes
// authenticate with issuer and check az before reaching the handler.
func (h *HTTPHandler) Routes(issuer *auth.TokenIssuer, az *authz.Authorizer, log zerolog.Logger) *http.ServeMux {
	g := guard{issuer: issuer, az: az, log: log}
	mux := http.NewServeMux()

	mux.HandleFunc("/health", h.Health)

	// Auth routes
	mux.Handle("/api/v1/auth/register", auth.OptionalMiddleware(issuer, WriteError)(http.HandlerFunc(h.Register)))
	mux.HandleFunc("/api/v1/auth/login", h.Login)
	mux.Handle("/api/v1/auth/me", auth.Middleware(issuer, WriteError)(http.HandlerFunc(h.Me)))

	// Request routes
	mux.Handle("/api/v1/requests", byMethod(map[string]http.Handler{
		http.MethodGet:  g.require("requests", "read", h.ListRequests),
		http.MethodPost: g.require("requests", "create", h.CreateRequest),
	}))
	mux.Handle("/api/v1/requests/get", g.require("requests", "read", h.GetRequest))
	mux.Handle("/api/v1/requests/history", g.require("requests", "read", h.GetHistory))

	// Approval routes
	mux.Handle("/api/v1/approvals/pending", g.require("approvals", "read", h.ListPending))
	mux.Handle("/api/v1/approvals/decide", g.require("approvals", "decide", h.DecideStage))

	// Rule routes
	mux.Handle("/api/v1/rules", byMethod(map[string]http.Handler{
		http.MethodGet:  g.require("rules", "read", h.ListRules),
		http.MethodPost: g.require("rules", "write", h.CreateRule),
	}))
	mux.Handle("/api/v1/rules/get", g.require("rules", "read", h.GetRule))
	mux.Handle("/api/v1/rules/update", g.require("rules", "write", h.UpdateRule))
	mux.Handle("/api/v1/rules/delete", g.require("rules", "write", h.DeleteRule))

	// Catalog routes
	mux.Handle("/api/v1/vendors", byMethod(map[string]http.Handler{
		http.MethodGet:  g.require("catalog", "read", h.ListVendors),
		http.MethodPost: g.require("catalog", "write", h.CreateVendor),
	}))
	mux.Handle("/api/v1/vendors/get", g.require("catalog", "read", h.GetVendor))
	mux.Handle("/api/v1/vendors/update", g.require("catalog", "write", h.UpdateVendor))

	mux.Handle("/api/v1/categories", byMethod(map[string]http.Handler{
		http.MethodGet:  g.require("catalog", "read", h.ListCategories),
		http.MethodPost: g.require("catalog", "write", h.CreateCategory),
	}))
	mux.Handle("/api/v1/categories/update", g.require("catalog", "write", h.UpdateCategory))
	mux.Handle("/api/v1/categories/delete", g.require("catalog", "write", h.DeleteCategory))

	// Purchase order routes
	mux.Handle("/api/v1/purchase-orders", byMethod(map[string]http.Handler{
		http.MethodGet:  g.require("purchase_orders", "read", h.ListPurchaseOrders),
		http.MethodPost: g.require("purchase_orders", "write", h.CreatePurchaseOrder),
	}))
	mux.Handle("/api/v1/purchase-orders/get", g.require("purchase_orders", "read", h.GetPurchaseOrder))
	mux.Handle("/api/v1/purchase-orders/status", g.require("purchase_orders", "write", h.UpdatePurchaseOrderStatus))

	mux.Handle("/api/v1/dashboard/summary", g.require("dashboard", "read", h.DashboardSummary))

	return mux
}

type guard struct {
	issuer *auth.TokenIssuer
	az     *authz.Authorizer
	log    zerolog.Logger
}

func (g guard) require(object, action string, fn http.HandlerFunc) http.Handler {
	authorize := authz.Require(g.az, g.log, object, action, WriteError)
	return auth.Middleware(g.issuer, WriteError)(authorize(fn))
}

// byMethod dispatches on the request method.
func byMethod(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next, ok := handlers[r.Method]
		if !ok {
			methodNotAllowed(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
