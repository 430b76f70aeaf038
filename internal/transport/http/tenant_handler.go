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
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/serenebook/serenebook/internal/tenant"
)

// ListTenants lists tenants visible to the caller
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	limit, offset := parsePagination(r)
	filters := tenant.ListFilters{
		Status: r.URL.Query().Get("status"),
		Plan:   r.URL.Query().Get("plan"),
		Limit:  limit,
		Offset: offset,
	}

	tenants, err := h.tenantService.List(r.Context(), p, filters)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

// GetTenant retrieves a single tenant
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	t, err := h.tenantService.Get(r.Context(), p, chi.URLParam(r, "tenantID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// CreateTenantRequest represents tenant creation data
type CreateTenantRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Plan     string `json:"plan"`
	MaxUsers int    `json:"max_users"`
}

// CreateTenant provisions a new tenant
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.tenantService.Create(r.Context(), p, tenant.CreateInput{
		Name:     req.Name,
		Slug:     req.Slug,
		Plan:     req.Plan,
		MaxUsers: req.MaxUsers,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, t)
}

// UpdateTenantRequest represents tenant update data. Absent fields are left
// unchanged.
type UpdateTenantRequest struct {
	Name     *string `json:"name"`
	Plan     *string `json:"plan"`
	MaxUsers *int    `json:"max_users"`
}

// UpdateTenant mutates a tenant's profile fields
func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req UpdateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.tenantService.Update(r.Context(), p, chi.URLParam(r, "tenantID"), tenant.UpdateInput{
		Name:     req.Name,
		Plan:     req.Plan,
		MaxUsers: req.MaxUsers,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// DeleteTenant removes a tenant with no remaining users
func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.tenantService.Delete(r.Context(), p, chi.URLParam(r, "tenantID")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SuspendTenant transitions a tenant to suspended
func (h *Handler) SuspendTenant(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	t, err := h.tenantService.Suspend(r.Context(), p, chi.URLParam(r, "tenantID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// ActivateTenant transitions a suspended tenant back to active
func (h *Handler) ActivateTenant(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	t, err := h.tenantService.Activate(r.Context(), p, chi.URLParam(r, "tenantID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}
