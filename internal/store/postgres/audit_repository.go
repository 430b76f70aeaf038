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

package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/serenebook/serenebook/internal/audit"
)

// AuditLogger implements audit.Logger against the append-only audit_log
// table. Rows are only ever inserted; there is no update or delete path.
type AuditLogger struct {
	db *DB
}

// NewAuditLogger creates a new database-backed audit logger
func NewAuditLogger(db *DB) *AuditLogger {
	return &AuditLogger{db: db}
}

// Log appends an audit event. Persistence failures are logged and swallowed:
// an audit write must never fail the operation it records.
func (l *AuditLogger) Log(ctx context.Context, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			slog.ErrorContext(ctx, "failed to encode audit metadata",
				slog.String("audit_type", event.Type),
				slog.String("error", err.Error()))
			metadata = nil
		}
	}

	_, err := l.db.pool.Exec(ctx, `
		INSERT INTO audit_log (event_type, tenant_id, actor_id, resource, metadata, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.Type, nullable(event.TenantID), nullable(event.ActorID), nullable(event.Resource),
		metadata, nullable(event.IPAddress), nullable(event.UserAgent), event.Timestamp)
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist audit event",
			slog.String("audit_type", event.Type),
			slog.String("error", err.Error()))
	}
}
