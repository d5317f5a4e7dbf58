package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wildnest/wildnest/internal/shared/apierror"
)

// Signer issues time-limited URLs for objects in a private bucket.
type Signer interface {
	SignedURL(objectPath string, expiration time.Duration) (string, error)
}

// RegisterMediaDir serves a local storage directory under /media.
func RegisterMediaDir(r chi.Router, root string) {
	fs := http.StripPrefix("/media/", http.FileServer(http.Dir(root)))
	r.Get("/media/*", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fs.ServeHTTP(w, req)
	})
}

// RegisterMediaRedirect answers /media/{object} with a redirect to a signed URL.
func RegisterMediaRedirect(r chi.Router, signer Signer, ttl time.Duration, logger *slog.Logger) {
	r.Get("/media/*", func(w http.ResponseWriter, req *http.Request) {
		objectPath := strings.TrimPrefix(chi.URLParam(req, "*"), "/")
		if objectPath == "" || strings.Contains(objectPath, "..") {
			writeError(w, req, apierror.CodeNotFound, "object not found")
			return
		}
		url, err := signer.SignedURL(objectPath, ttl)
		if err != nil {
			logRequestError(req.Context(), logger, "failed to sign media url", err, "")
			writeError(w, req, apierror.CodeInternal, "failed to load media")
			return
		}
		w.Header().Set("Cache-Control", "private, max-age=60")
		http.Redirect(w, req, url, http.StatusTemporaryRedirect)
	})
}
