package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBootstrap_SuccessFirstAttempt(t *testing.T) {
	b := NewBootstrap(1)
	require.Equal(t, BootstrapIdle, b.State())

	b.Begin()
	require.Equal(t, BootstrapLoading, b.State())

	b.Ready()
	require.Equal(t, BootstrapReady, b.State())
}

func TestBootstrap_RetryBudget(t *testing.T) {
	b := NewBootstrap(1)

	b.Begin()
	require.True(t, b.Retry(), "first failure is within the retry budget")
	require.Equal(t, BootstrapRetrying, b.State())

	b.Begin()
	require.False(t, b.Retry(), "second failure exhausts the budget")
}

func TestBootstrap_ZeroRetries(t *testing.T) {
	b := NewBootstrap(0)

	b.Begin()
	require.False(t, b.Retry())

	b.Fail()
	require.Equal(t, BootstrapFailed, b.State())
}

func TestBootstrapState_String(t *testing.T) {
	require.Equal(t, "idle", BootstrapIdle.String())
	require.Equal(t, "loading", BootstrapLoading.String())
	require.Equal(t, "retrying", BootstrapRetrying.String())
	require.Equal(t, "ready", BootstrapReady.String())
	require.Equal(t, "failed", BootstrapFailed.String())
}
