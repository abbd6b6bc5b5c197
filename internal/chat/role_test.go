package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWireRole(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{RoleAI, WireRoleAssistant},
		{RoleUser, WireRoleUser},
		{RoleSystem, WireRoleSystem},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, WireRole(tc.in))
	}
}

func TestLocalRole(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{WireRoleAssistant, RoleAI},
		{WireRoleUser, RoleUser},
		{WireRoleSystem, RoleSystem},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, LocalRole(tc.in))
	}
}

// The mapping must invert itself for every session role.
func TestRoleMappingRoundTrip(t *testing.T) {
	for _, role := range []string{RoleUser, RoleAI, RoleSystem} {
		require.Equal(t, role, LocalRole(WireRole(role)))
	}
}
