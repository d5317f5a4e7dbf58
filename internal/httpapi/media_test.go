package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaDir_ServesStoredFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "posts", "u1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "posts", "u1", "a.png"), []byte("png-bytes"), 0o644))

	r := chi.NewRouter()
	RegisterMediaDir(r, root)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/posts/u1/a.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/posts/u1/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type signerFunc func(string, time.Duration) (string, error)

func (f signerFunc) SignedURL(p string, ttl time.Duration) (string, error) { return f(p, ttl) }

func TestMediaRedirect(t *testing.T) {
	var gotPath string
	var gotTTL time.Duration
	r := chi.NewRouter()
	RegisterMediaRedirect(r, signerFunc(func(p string, ttl time.Duration) (string, error) {
		gotPath, gotTTL = p, ttl
		if p == "posts/broken.png" {
			return "", errors.New("no signing key")
		}
		return "https://storage.googleapis.com/b/" + p + "?X-Goog-Signature=abc", nil
	}), 15*time.Minute, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/posts/u1/a.png", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "posts/u1/a.png", gotPath)
	assert.Equal(t, 15*time.Minute, gotTTL)
	assert.Contains(t, rec.Header().Get("Location"), "X-Goog-Signature")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/posts/broken.png", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
