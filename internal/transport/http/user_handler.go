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
	"github.com/serenebook/serenebook/internal/identity"
)

// ListUsers lists the users visible to the caller
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	limit, offset := parsePagination(r)
	users, err := h.identityService.List(r.Context(), p, identity.ListFilters{
		RoleID: r.URL.Query().Get("role_id"),
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// GetUser retrieves a single user
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	u, err := h.identityService.Get(r.Context(), p, chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, u)
}

// CreateUserRequest represents user creation data
type CreateUserRequest struct {
	Email                 string   `json:"email"`
	FullName              string   `json:"full_name"`
	Password              string   `json:"password"`
	TenantID              *string  `json:"tenant_id"`
	RoleID                string   `json:"role_id"`
	AdditionalPermissions []string `json:"additional_permissions"`
}

// CreateUser provisions a user, subject to the target tenant's seat limit
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.identityService.Create(r.Context(), p, identity.CreateInput{
		Email:                 req.Email,
		FullName:              req.FullName,
		Password:              req.Password,
		TenantID:              req.TenantID,
		RoleID:                req.RoleID,
		AdditionalPermissions: req.AdditionalPermissions,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, u)
}

// UpdateUserRequest represents user update data. Absent fields are left
// unchanged.
type UpdateUserRequest struct {
	FullName              *string  `json:"full_name"`
	RoleID                *string  `json:"role_id"`
	Status                *string  `json:"status"`
	AdditionalPermissions []string `json:"additional_permissions"`
}

// UpdateUser mutates a user
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.identityService.Update(r.Context(), p, chi.URLParam(r, "userID"), identity.UpdateInput{
		FullName:              req.FullName,
		RoleID:                req.RoleID,
		Status:                req.Status,
		AdditionalPermissions: req.AdditionalPermissions,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, u)
}

// DeleteUser soft-deletes a user
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.identityService.Delete(r.Context(), p, chi.URLParam(r, "userID")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetUserPermissions returns a user's flattened effective permission set
func (h *Handler) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	userID := chi.URLParam(r, "userID")

	// Read access to the user implies read access to their grants.
	if _, err := h.identityService.Get(r.Context(), p, userID); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	perms, err := h.identityService.EffectivePermissions(r.Context(), userID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"permissions": perms})
}
