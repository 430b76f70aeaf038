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
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/serenebook/serenebook/internal/observability/logger"
)

// Tenancy principles:
// 1. Tenant context is derived exclusively from the verified access token.
// 2. A nil tenant claim marks a platform operator, not elevated privilege;
//    privileges come only from the permission set.
// 3. Client-supplied tenant headers are never trusted.

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware verifies the bearer token and attaches the principal to the
// request context. Requests carrying an X-Tenant-ID header are rejected
// outright; tenant context comes only from the token.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		p, err := h.verifier.Verify(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if r.Header.Get("X-Tenant-ID") != "" {
			slog.WarnContext(r.Context(), "tenant header spoofing attempt on authenticated route",
				logger.UserID(p.ID),
			)
			respondError(w, http.StatusBadRequest, "X-Tenant-ID header is not allowed; tenant is derived from the access token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}
