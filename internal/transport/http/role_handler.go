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
	"github.com/serenebook/serenebook/internal/role"
)

// ListRoles lists the role definitions visible to the caller
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	limit, offset := parsePagination(r)
	roles, err := h.roleService.List(r.Context(), p, role.ListFilters{
		Type:   r.URL.Query().Get("type"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

// GetRole retrieves a single role definition
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	rl, err := h.roleService.Get(r.Context(), p, chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rl)
}

// CreateRoleRequest represents role creation data
type CreateRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	TenantID    *string  `json:"tenant_id"`
	Permissions []string `json:"permissions"`
	Level       int      `json:"level"`
	IsDefault   bool     `json:"is_default"`
}

// CreateRole creates a role definition
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rl, err := h.roleService.Create(r.Context(), p, role.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		TenantID:    req.TenantID,
		Permissions: req.Permissions,
		Level:       req.Level,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, rl)
}

// UpdateRoleRequest represents role update data. Absent fields are left
// unchanged.
type UpdateRoleRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Level       *int     `json:"level"`
	IsDefault   *bool    `json:"is_default"`
	Permissions []string `json:"permissions"`
}

// UpdateRole mutates a role definition
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rl, err := h.roleService.Update(r.Context(), p, chi.URLParam(r, "roleID"), role.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
		IsDefault:   req.IsDefault,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rl)
}

// DeleteRole removes a role definition
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.roleService.Delete(r.Context(), p, chi.URLParam(r, "roleID")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AssignPermissionsRequest carries the full intended permission set
type AssignPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// AssignRolePermissions replaces a role's permission set wholesale
func (h *Handler) AssignRolePermissions(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req AssignPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rl, err := h.roleService.AssignPermissions(r.Context(), p, chi.URLParam(r, "roleID"), req.Permissions)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rl)
}
