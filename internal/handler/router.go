package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	mid "github.com/akluev/vendops/internal/middleware"
	authpkg "github.com/akluev/vendops/pkg/auth"
	"github.com/akluev/vendops/pkg/vendapi"
)

// Handler groups dependencies for route handlers.
type Handler struct {
	auth      authpkg.Authenticator
	telemetry *vendapi.Client
	dbURL     string
	jwtSecret string
	jwtIssuer string
	jwtAud    string
}

// NewRouter wires all dashboard routes. dbURL points at the operational-state
// database; jwtSecret/issuer/audience must match the Authenticator.
func NewRouter(a authpkg.Authenticator, telemetry *vendapi.Client, dbURL, jwtSecret, jwtIssuer, jwtAudience string) http.Handler {
	h := &Handler{
		auth:      a,
		telemetry: telemetry,
		dbURL:     dbURL,
		jwtSecret: jwtSecret,
		jwtIssuer: jwtIssuer,
		jwtAud:    jwtAudience,
	}
	r := chi.NewRouter()

	r.Get("/health", h.health)
	r.Post("/login", h.loginHandler)
	r.Post("/logout", h.logoutHandler)

	// protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mid.RequireAuth(h.auth))

		r.Get("/machines", h.machinesHandler)
		r.Get("/machines/{machine}/overview", h.overviewHandler)
		r.Get("/machines/{machine}/shopping-list", h.shoppingListHandler)
		r.Get("/machines/{machine}/shopping-list/export", h.shoppingListExportHandler)
		r.Post("/machines/{machine}/restock", h.restockHandler)
		r.Get("/machines/{machine}/planogram", h.getPlanogramHandler)
		r.Get("/machines/{machine}/schedule", h.getScheduleHandler)

		// planogram/schedule edits are manager-only
		r.Group(func(r chi.Router) {
			r.Use(mid.RequireRole("manager"))
			r.Put("/machines/{machine}/planogram", h.putPlanogramHandler)
			r.Put("/machines/{machine}/schedule", h.putScheduleHandler)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeJSON is the shared success-response helper.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
