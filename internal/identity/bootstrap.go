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

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/permission"
	"github.com/serenebook/serenebook/internal/role"
)

const (
	EnvBootstrapAdminEmail    = "SB_BOOTSTRAP_ADMIN_EMAIL"
	EnvBootstrapAdminPassword = "SB_BOOTSTRAP_ADMIN_PASSWORD"
)

// Bootstrap provisions the initial platform operator from the environment.
// It is a no-op when the variables are unset or the operator already exists,
// so running it on every start is safe.
func (s *Service) Bootstrap(ctx context.Context) error {
	email := os.Getenv(EnvBootstrapAdminEmail)
	password := os.Getenv(EnvBootstrapAdminPassword)
	if email == "" {
		return nil
	}
	if password == "" {
		return fmt.Errorf("%s is set but %s is empty", EnvBootstrapAdminEmail, EnvBootstrapAdminPassword)
	}

	if _, err := s.repo.GetByEmail(ctx, nil, email); err == nil {
		// Already bootstrapped, skip silently.
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("failed to check for existing operator: %w", err)
	}

	adminRole, err := s.roles.GetByName(ctx, role.RolePlatformAdmin, nil)
	if err != nil {
		return fmt.Errorf("platform_admin role not seeded: %w", err)
	}

	// Acting principal is the system itself; it goes through the regular
	// create path so the seat-limit and audit behavior stay uniform.
	system := authz.Principal{
		ID:          "system",
		Permissions: permission.NewSet([]string{PermCreateAnyUser}),
	}

	u, err := s.Create(ctx, system, CreateInput{
		Email:    email,
		FullName: "Platform Operator",
		Password: password,
		RoleID:   adminRole.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap platform operator: %w", err)
	}

	slog.InfoContext(ctx, "bootstrapped platform operator",
		slog.String("user_id", u.ID), slog.String("email", email))
	return nil
}
