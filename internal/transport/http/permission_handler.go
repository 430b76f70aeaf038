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
	"net/http"

	"github.com/serenebook/serenebook/internal/permission"
)

// ListPermissionCatalog returns the known permissions grouped by resource.
// The catalog is reference data for role editing; any principal holding a
// permissions:read grant may see it, as may platform operators.
func (h *Handler) ListPermissionCatalog(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	canRead := p.IsPlatformOperator() ||
		p.Permissions.Has(permission.Permission{Resource: "permissions", Action: "read", Scope: permission.ScopeAll}) ||
		p.Permissions.Has(permission.Permission{Resource: "permissions", Action: "read", Scope: permission.ScopeOwn}) ||
		p.Permissions.HasString("permissions:read")
	if !canRead {
		respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	groups, err := h.catalog.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"permissions": groups})
}
