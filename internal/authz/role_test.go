// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/pkg/errutil"
)

func TestRole_HierarchyIsTotal(t *testing.T) {
	roles := authz.Roles()
	require.Len(t, roles, 4)

	// Every pair of distinct roles is ordered one way or the other.
	for i, a := range roles {
		for j, b := range roles {
			switch {
			case i < j:
				assert.True(t, b.Above(a), "%s should outrank %s", b, a)
				assert.False(t, a.Above(b))
			case i == j:
				assert.False(t, a.Above(b))
				assert.True(t, a.AtLeast(b))
			}
		}
	}
}

func TestRole_Levels(t *testing.T) {
	assert.Equal(t, 0, authz.RoleUser.Level())
	assert.Equal(t, 1, authz.RoleManager.Level())
	assert.Equal(t, 2, authz.RoleAdmin.Level())
	assert.Equal(t, 3, authz.RoleSuperAdmin.Level())
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "USER", authz.RoleUser.String())
	assert.Equal(t, "MANAGER", authz.RoleManager.String())
	assert.Equal(t, "ADMIN", authz.RoleAdmin.String())
	assert.Equal(t, "SUPER_ADMIN", authz.RoleSuperAdmin.String())
	assert.Equal(t, "unknown(42)", authz.Role(42).String())
}

func TestRole_Valid(t *testing.T) {
	for _, r := range authz.Roles() {
		assert.True(t, r.Valid(), r.String())
	}
	assert.False(t, authz.Role(-1).Valid())
	assert.False(t, authz.Role(4).Valid())
}

func TestParseRole(t *testing.T) {
	for _, r := range authz.Roles() {
		parsed, err := authz.ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	_, err := authz.ParseRole("OWNER")
	errutil.AssertErrorCode(t, err, "INVALID_ROLE")

	// Lowercase is not accepted; roles are stored canonically.
	_, err = authz.ParseRole("admin")
	errutil.AssertErrorCode(t, err, "INVALID_ROLE")
}
