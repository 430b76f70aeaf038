// Copyright 2026 The SereneBook Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/serenebook/serenebook/internal/audit"
	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/identity"
	"github.com/serenebook/serenebook/internal/observability/logger"
	"github.com/serenebook/serenebook/internal/observability/metrics"
	"github.com/serenebook/serenebook/internal/permission"
	"github.com/serenebook/serenebook/internal/role"
	"github.com/serenebook/serenebook/internal/tenant"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	tenantService   *tenant.Service
	roleService     *role.Service
	identityService *identity.Service
	catalog         *permission.Catalog
	verifier        *TokenVerifier
	auditLogger     audit.Logger
	meter           *metrics.Meter
}

// NewHandler creates a new HTTP handler
func NewHandler(
	tenantService *tenant.Service,
	roleService *role.Service,
	identityService *identity.Service,
	catalog *permission.Catalog,
	verifier *TokenVerifier,
	auditLogger audit.Logger,
	meter *metrics.Meter,
) *Handler {
	return &Handler{
		tenantService:   tenantService,
		roleService:     roleService,
		identityService: identityService,
		catalog:         catalog,
		verifier:        verifier,
		auditLogger:     auditLogger,
		meter:           meter,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Route("/{tenantID}", func(r chi.Router) {
				r.Get("/", h.GetTenant)
				r.Put("/", h.UpdateTenant)
				r.Delete("/", h.DeleteTenant)
				r.Post("/suspend", h.SuspendTenant)
				r.Post("/activate", h.ActivateTenant)
			})
		})

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.ListRoles)
			r.Post("/", h.CreateRole)
			r.Route("/{roleID}", func(r chi.Router) {
				r.Get("/", h.GetRole)
				r.Put("/", h.UpdateRole)
				r.Delete("/", h.DeleteRole)
				r.Put("/permissions", h.AssignRolePermissions)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", h.GetUser)
				r.Put("/", h.UpdateUser)
				r.Delete("/", h.DeleteUser)
				r.Get("/permissions", h.GetUserPermissions)
			})
		})

		r.Get("/permissions", h.ListPermissionCatalog)
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "serenebook",
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps domain sentinels to HTTP statuses. Not-found checks
// run in the services before permission checks, so a 404 here never masks a
// 403 and vice versa. Denied access is audited with the transport metadata
// only this layer can see.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authz.ErrAccessDenied):
		if h.meter != nil {
			h.meter.RecordAccessDenial(r.Context(), r.Method+" "+r.URL.Path)
		}
		if p, ok := PrincipalFrom(r.Context()); ok {
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:      audit.TypeAccessDenied,
				TenantID:  derefOr(p.TenantID),
				ActorID:   p.ID,
				Resource:  r.Method + " " + r.URL.Path,
				IPAddress: getIPAddress(r),
				UserAgent: r.UserAgent(),
			})
		}
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, role.ErrRoleNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	// Everything below is a validation failure: the request named a real,
	// reachable entity but asked for something its current state forbids.
	// Only a missing permission is 403; these are all 400.
	case errors.Is(err, role.ErrSystemRoleImmutable),
		errors.Is(err, role.ErrDefaultRoleProtected),
		errors.Is(err, role.ErrRoleInUse),
		errors.Is(err, role.ErrInvalidRoleType),
		errors.Is(err, role.ErrSystemRoleTenantBound),
		errors.Is(err, role.ErrTenantRoleNeedsTenant),
		errors.Is(err, role.ErrRoleNameTaken),
		errors.Is(err, tenant.ErrSlugTaken),
		errors.Is(err, tenant.ErrInvalidSlug),
		errors.Is(err, tenant.ErrTenantHasUsers),
		errors.Is(err, tenant.ErrTenantAlreadySuspended),
		errors.Is(err, tenant.ErrTenantAlreadyActive),
		errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, identity.ErrInvalidStatus),
		errors.Is(err, identity.ErrSeatLimitReached),
		errors.Is(err, permission.ErrInvalidPermission):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "internal error", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func parsePagination(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = atoiDefault(q.Get("limit"), 50)
	offset = atoiDefault(q.Get("offset"), 0)
	return limit, offset
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
