package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleAccessChecker(t *testing.T) {
	t.Parallel()

	checker := NewRoleAccessChecker()
	user := approvedUser()

	require.NoError(t, checker.CheckAccess(context.Background(), "admin", user))
	require.Error(t, checker.CheckAccess(context.Background(), "auditor", user))
	require.Error(t, checker.CheckAccess(context.Background(), RefreshTokenScope, user),
		"the refresh marker never grants a permission")
}
