package session

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	token, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", token)

	require.NoError(t, m.Save(ctx, "abc"))
	token, _ = m.Load(ctx)
	assert.Equal(t, "abc", token)

	require.NoError(t, m.Remove(ctx))
	token, _ = m.Load(ctx)
	assert.Equal(t, "", token)
}

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", TokenKey)
	f := NewFileStorage(path)
	assert.Equal(t, path, f.Path())

	t.Run("missing file is logged out", func(t *testing.T) {
		token, err := f.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", token)
	})

	t.Run("save creates the file privately", func(t *testing.T) {
		require.NoError(t, f.Save(ctx, "abc"))

		token, err := f.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc", token)

		if runtime.GOOS != "windows" {
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
		}
	})

	t.Run("save replaces", func(t *testing.T) {
		require.NoError(t, f.Save(ctx, "def"))
		token, _ := f.Load(ctx)
		assert.Equal(t, "def", token)

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temp files left behind")
	})

	t.Run("whitespace is trimmed", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("  ghi\n"), 0o600))
		token, _ := f.Load(ctx)
		assert.Equal(t, "ghi", token)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, f.Remove(ctx))
		require.NoError(t, f.Remove(ctx))
		token, _ := f.Load(ctx)
		assert.Equal(t, "", token)
	})

	t.Run("store survives a restart", func(t *testing.T) {
		s := newStore(t, WithStorage(f))
		s.establish(ctx, "persisted", nil)

		restarted := newStore(t, WithStorage(NewFileStorage(path)))
		assert.Equal(t, "persisted", restarted.Token())
	})
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject(subject).
		Issuer("easynote").
		IssuedAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).
		Expiration(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("server-secret")))
	require.NoError(t, err)
	return string(signed)
}

func TestInspect(t *testing.T) {
	claims, err := Inspect(signedToken(t, "42"))
	require.NoError(t, err)

	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "easynote", claims.Issuer)
	assert.True(t, claims.Expiry.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.True(t, claims.Expired(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, claims.Expired(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))

	_, err = Inspect("opaque-session-id")
	assert.Error(t, err)

	assert.False(t, (&Claims{}).Expired(time.Now()), "no expiry never expires")
}
