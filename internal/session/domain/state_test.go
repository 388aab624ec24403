package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestDeriveState(t *testing.T) {
	t.Parallel()

	user := User{ID: "usr_1", Email: "jo@example.com"}
	fetchErr := errors.New("dial tcp: timeout")

	tests := []struct {
		name     string
		hasToken *bool
		loading  bool
		fetchErr error
		user     User
		want     Phase
	}{
		{name: "boot pending", hasToken: nil, want: PhaseUninitialized},
		{name: "boot pending ignores stale fields", hasToken: nil, loading: true, user: user, want: PhaseUninitialized},
		{name: "no token", hasToken: boolPtr(false), want: PhaseUnauthenticated},
		{name: "no token wins over loading", hasToken: boolPtr(false), loading: true, want: PhaseUnauthenticated},
		{name: "no token wins over error", hasToken: boolPtr(false), fetchErr: fetchErr, want: PhaseUnauthenticated},
		{name: "fetch in flight", hasToken: boolPtr(true), loading: true, want: PhaseResolving},
		{name: "loading wins over previous error", hasToken: boolPtr(true), loading: true, fetchErr: fetchErr, want: PhaseResolving},
		{name: "fetch failed", hasToken: boolPtr(true), fetchErr: fetchErr, want: PhaseInvalid},
		{name: "token but fetch not started", hasToken: boolPtr(true), want: PhaseResolving},
		{name: "fetched user", hasToken: boolPtr(true), user: user, want: PhaseAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DeriveState(tt.hasToken, tt.loading, tt.fetchErr, tt.user)
			require.Equal(t, tt.want, got.Phase)

			if tt.want == PhaseAuthenticated {
				require.Equal(t, tt.user, got.User)
			} else {
				require.True(t, got.User.IsZero(), "user only carried when authenticated")
			}
		})
	}
}

func TestSnapshotOf(t *testing.T) {
	t.Parallel()

	t.Run("initialized once a terminal phase is reached", func(t *testing.T) {
		t.Parallel()

		require.False(t, SnapshotOf(SessionState{Phase: PhaseUninitialized}, false).Initialized)
		require.False(t, SnapshotOf(SessionState{Phase: PhaseResolving}, false).Initialized)
		require.True(t, SnapshotOf(SessionState{Phase: PhaseUnauthenticated}, false).Initialized)
		require.True(t, SnapshotOf(SessionState{Phase: PhaseInvalid}, false).Initialized)
		require.True(t, SnapshotOf(SessionState{Phase: PhaseAuthenticated}, false).Initialized)
	})

	t.Run("authenticated only with a fetched user", func(t *testing.T) {
		t.Parallel()

		user := User{ID: "usr_1"}
		snap := SnapshotOf(SessionState{Phase: PhaseAuthenticated, User: user}, true)
		require.True(t, snap.Authenticated)
		require.True(t, snap.FirstLaunch)
		require.Equal(t, user, snap.User)

		// A stored but rejected token never reports authenticated.
		require.False(t, SnapshotOf(SessionState{Phase: PhaseInvalid}, false).Authenticated)
	})
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "uninitialized", PhaseUninitialized.String())
	require.Equal(t, "authenticated", PhaseAuthenticated.String())
	require.Equal(t, "unknown", Phase(99).String())
}
