package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stillwaterhq/stillwater/internal/session/domain"
)

func openVault(t *testing.T, dir string, secret string) *Vault {
	t.Helper()
	v, err := Open(filepath.Join(dir, "session.vault"), []byte(secret))
	require.NoError(t, err)
	return v
}

func TestVault(t *testing.T) {
	t.Parallel()

	pair := domain.TokenPair{AccessToken: "a1", RefreshToken: "r1"}

	t.Run("missing file reads as the zero pair", func(t *testing.T) {
		t.Parallel()

		v := openVault(t, t.TempDir(), "device-secret")
		got, err := v.Pair(context.Background())
		require.NoError(t, err)
		require.True(t, got.IsZero())
	})

	t.Run("set then get roundtrips", func(t *testing.T) {
		t.Parallel()

		v := openVault(t, t.TempDir(), "device-secret")
		require.NoError(t, v.SetPair(context.Background(), pair))

		got, err := v.Pair(context.Background())
		require.NoError(t, err)
		require.Equal(t, pair, got)
	})

	t.Run("pair survives reopening the vault", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		v := openVault(t, dir, "device-secret")
		require.NoError(t, v.SetPair(context.Background(), pair))

		reopened := openVault(t, dir, "device-secret")
		got, err := reopened.Pair(context.Background())
		require.NoError(t, err)
		require.Equal(t, pair, got)
	})

	t.Run("overwrite replaces the whole pair", func(t *testing.T) {
		t.Parallel()

		v := openVault(t, t.TempDir(), "device-secret")
		require.NoError(t, v.SetPair(context.Background(), pair))
		rotated := domain.TokenPair{AccessToken: "a2", RefreshToken: "r2"}
		require.NoError(t, v.SetPair(context.Background(), rotated))

		got, err := v.Pair(context.Background())
		require.NoError(t, err)
		require.Equal(t, rotated, got)
	})

	t.Run("wrong secret reports corrupt", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		v := openVault(t, dir, "device-secret")
		require.NoError(t, v.SetPair(context.Background(), pair))

		wrong := openVault(t, dir, "other-secret")
		_, err := wrong.Pair(context.Background())
		require.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("truncated file reports corrupt", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "session.vault")
		v, err := Open(path, []byte("device-secret"))
		require.NoError(t, err)
		require.NoError(t, v.SetPair(context.Background(), pair))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o600))

		_, err = v.Pair(context.Background())
		require.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("tokens never stored in plaintext", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "session.vault")
		v, err := Open(path, []byte("device-secret"))
		require.NoError(t, err)
		secret := domain.TokenPair{
			AccessToken:  "eyJhbGciOiJIUzI1NiJ9.access-token-body",
			RefreshToken: "opaque-refresh-token-value",
		}
		require.NoError(t, v.SetPair(context.Background(), secret))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotContains(t, string(data), secret.AccessToken)
		require.NotContains(t, string(data), secret.RefreshToken)
	})

	t.Run("clear removes the pair and is idempotent", func(t *testing.T) {
		t.Parallel()

		v := openVault(t, t.TempDir(), "device-secret")
		require.NoError(t, v.SetPair(context.Background(), pair))
		require.NoError(t, v.Clear(context.Background()))
		require.NoError(t, v.Clear(context.Background()))

		got, err := v.Pair(context.Background())
		require.NoError(t, err)
		require.True(t, got.IsZero())
	})

	t.Run("open validates its inputs", func(t *testing.T) {
		t.Parallel()

		_, err := Open("", []byte("s"))
		require.Error(t, err)
		_, err = Open("x", nil)
		require.Error(t, err)
	})
}
