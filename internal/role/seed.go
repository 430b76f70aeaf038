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

package role

// -----------------------------------------------------------------------------
// System Role Names
// These are the canonical names for the platform-managed roles every tenant
// inherits. Used for seeding and validation.
// -----------------------------------------------------------------------------

const (
	// RolePlatformAdmin is the platform operator role.
	RolePlatformAdmin = "platform_admin"

	// RoleSalonOwner has full control over one salon (tenant).
	RoleSalonOwner = "salon_owner"

	// RoleSalonManager manages staff and roles within one salon.
	RoleSalonManager = "salon_manager"

	// RoleFrontDesk is the reception role: read access plus user viewing.
	RoleFrontDesk = "front_desk"

	// RoleStaff is the default role new salon users receive.
	RoleStaff = "staff"
)

// PlatformAdminPermissions defines permissions for the platform_admin role.
var PlatformAdminPermissions = []string{
	"tenants:read:all",
	"tenants:create:all",
	"tenants:update:all",
	"tenants:delete:all",
	"tenants:suspend:all",
	"tenants:activate:all",
	"users:read:all",
	"users:create:all",
	"users:update:all",
	"users:delete:all",
	"roles:read:all",
	"roles:create:all",
	"roles:create:system",
	"roles:update:all",
	"roles:delete:all",
	"permissions:read:all",
}

// SalonOwnerPermissions defines permissions for the salon_owner role.
var SalonOwnerPermissions = []string{
	"tenants:read:own",
	"tenants:update:own",
	"users:read:own",
	"users:create:own",
	"users:update:own",
	"users:delete:own",
	"roles:read:own",
	"roles:create:own",
	"roles:update:own",
	"roles:delete:own",
	"permissions:read:own",
}

// SalonManagerPermissions defines permissions for the salon_manager role.
var SalonManagerPermissions = []string{
	"tenants:read:own",
	"users:read:own",
	"users:create:own",
	"users:update:own",
	"roles:read:own",
	"permissions:read:own",
}

// FrontDeskPermissions defines permissions for the front_desk role.
var FrontDeskPermissions = []string{
	"tenants:read:own",
	"users:read:own",
}

// StaffPermissions defines permissions for the staff role.
var StaffPermissions = []string{
	"tenants:read:own",
}

// SystemRoles returns the canonical platform-managed role definitions. The
// initial migration seeds the same rows; this is the in-code reference the
// seed must stay consistent with. Levels order the roles for display,
// highest first.
func SystemRoles() []Role {
	return []Role{
		{Name: RolePlatformAdmin, Type: TypeSystem, Permissions: PlatformAdminPermissions, Level: 100, IsSystem: true},
		{Name: RoleSalonOwner, Type: TypeSystem, Permissions: SalonOwnerPermissions, Level: 80, IsSystem: true},
		{Name: RoleSalonManager, Type: TypeSystem, Permissions: SalonManagerPermissions, Level: 60, IsSystem: true},
		{Name: RoleFrontDesk, Type: TypeSystem, Permissions: FrontDeskPermissions, Level: 40, IsSystem: true},
		{Name: RoleStaff, Type: TypeSystem, Permissions: StaffPermissions, Level: 20, IsSystem: true, IsDefault: true},
	}
}
