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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter carries the service's instruments. HTTP request metrics come from
// the otelhttp middleware; these cover what that layer cannot see.
type Meter struct {
	accessDenials metric.Int64Counter
}

// New builds the service instruments on the global meter provider. When
// metrics are disabled (or no provider is installed) the instruments are
// no-ops, so recording sites need no branches.
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	name := serviceName
	if !cfg.Enabled {
		name = "noop"
	}
	meter := otel.Meter(name)

	denials, err := meter.Int64Counter(
		"authz.access_denied",
		metric.WithDescription("Requests refused by a permission or scope check"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create access denial counter: %w", err)
	}

	return &Meter{accessDenials: denials}, nil
}

// RecordAccessDenial counts one denied request against the route that
// refused it.
func (m *Meter) RecordAccessDenial(ctx context.Context, route string) {
	m.accessDenials.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}
