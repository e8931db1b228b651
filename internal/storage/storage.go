// Package storage stores variant images on local disk or S3.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// PutInput describes an object to store.
type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
}

// PutResult is the key and public URL of a stored object.
type PutResult struct {
	Key string
	URL string
}

// Storage puts and deletes image objects. KeyFromURL maps a public URL issued by Put
// back to its key and reports false for URLs the backend does not own.
type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// AllowedExt reports whether filename carries an accepted image extension.
func AllowedExt(filename string) bool {
	return safeExt(filename) != ""
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return ""
	}
}

func trimPrefix(url, base string) (string, bool) {
	base = strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return "", false
	}
	key := strings.TrimPrefix(url, base)
	if key == "" {
		return "", false
	}
	return key, true
}
