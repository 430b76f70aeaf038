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
	"fmt"
	"strings"

	"github.com/serenebook/serenebook/internal/authz"
)

// buildClauses renders a typed query value into the SQL tail after the
// column list: WHERE (base conditions plus one equality per filter),
// ORDER BY, LIMIT, OFFSET. Column names come from the management services'
// own constants, never from request input; values are always positional
// arguments.
func buildClauses(q authz.Query, conds []string, args []any) (string, []any) {
	for _, f := range q.Filters {
		args = append(args, f.Value)
		conds = append(conds, fmt.Sprintf("%s = $%d", f.Column, len(args)))
	}

	var sb strings.Builder
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	if q.SortBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.SortBy)
		if q.SortDesc {
			sb.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.Offset)
	}

	return sb.String(), args
}

// renameFilters maps engine column names onto a table's own columns (the
// tenants table stores its tenant id in the id column).
func renameFilters(q authz.Query, from, to string) authz.Query {
	filters := make([]authz.Filter, len(q.Filters))
	copy(filters, q.Filters)
	for i := range filters {
		if filters[i].Column == from {
			filters[i].Column = to
		}
	}
	q.Filters = filters
	return q
}
