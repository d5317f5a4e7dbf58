package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores objects under a local directory. It is meant for development, with
// the directory served over HTTP at publicBase.
type Disk struct {
	root       string
	publicBase string
}

func NewDisk(root, publicBase string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Disk{root: root, publicBase: publicBase}, nil
}

// Root is the directory objects are written to.
func (d *Disk) Root() string { return d.root }

func (d *Disk) Put(ctx context.Context, objectPath string, data io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + objectPath)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	target := filepath.Join(d.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to publish object: %w", err)
	}
	return joinURL(d.publicBase, filepath.ToSlash(clean)), nil
}

func (d *Disk) Close() error { return nil }
