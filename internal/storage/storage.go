// Package storage persists uploaded images and returns the URL they are served from.
package storage

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// Store writes objects. The returned URL is stable for a given object path, so the
// same upload always yields the same URL.
type Store interface {
	Put(ctx context.Context, objectPath string, data io.Reader, contentType string) (string, error)
	Close() error
}

const cacheControl = "public, max-age=3600"

// DetectImage sniffs the content type of an image and returns it with a file
// extension. ok is false when data is not an image.
func DetectImage(data []byte) (contentType, ext string, ok bool) {
	contentType = http.DetectContentType(data)
	switch contentType {
	case "image/jpeg":
		return contentType, ".jpg", true
	case "image/png":
		return contentType, ".png", true
	case "image/gif":
		return contentType, ".gif", true
	case "image/webp":
		return contentType, ".webp", true
	case "image/bmp":
		return contentType, ".bmp", true
	}
	return contentType, "", strings.HasPrefix(contentType, "image/")
}

func joinURL(base, objectPath string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(objectPath, "/")
}
