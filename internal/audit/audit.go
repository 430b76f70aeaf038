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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Event types
const (
	TypeTenantCreated   = "tenant_created"
	TypeTenantUpdated   = "tenant_updated"
	TypeTenantSuspended = "tenant_suspended"
	TypeTenantActivated = "tenant_activated"
	TypeTenantDeleted   = "tenant_deleted"

	TypeRoleCreated         = "role_created"
	TypeRoleUpdated         = "role_updated"
	TypeRoleDeleted         = "role_deleted"
	TypePermissionsAssigned = "permissions_assigned"

	TypeUserCreated = "user_created"
	TypeUserUpdated = "user_updated"
	TypeUserDeleted = "user_deleted"

	TypeAccessDenied = "access_denied"
)

// Event represents an auditable action
type Event struct {
	Type      string
	TenantID  string
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	// Ensure timestamp is set
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("tenant_id", event.TenantID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	// Flatten metadata
	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			// Redact secrets
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	lower := strings.ToLower(key)
	secrets := []string{"password", "secret", "token", "key", "hash", "credential", "authorization"}
	for _, s := range secrets {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Multi fans one event out to several loggers (e.g. slog plus the
// append-only audit_log table).
type Multi []Logger

// Log sends the event to every wrapped logger.
func (m Multi) Log(ctx context.Context, event Event) {
	for _, l := range m {
		l.Log(ctx, event)
	}
}
