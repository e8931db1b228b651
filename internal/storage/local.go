package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local stores images as files under BaseDir, served at URLPrefix.
type Local struct {
	BaseDir   string
	URLPrefix string
}

// NewLocal creates a Local backend.
func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: urlPrefix}
}

// Put writes r to a new file named by a uuid and the sanitized extension of in.Filename.
func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	_ = ctx

	if err := os.MkdirAll(l.BaseDir, 0o755); err != nil {
		return PutResult{}, err
	}

	key := uuid.NewString() + safeExt(in.Filename)
	dstPath := filepath.Join(l.BaseDir, key)

	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return PutResult{}, err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(dstPath)
		return PutResult{}, err
	}

	url := strings.TrimRight(l.URLPrefix, "/") + "/" + key
	return PutResult{Key: key, URL: url}, nil
}

// Delete removes the file of key. A missing file is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	_ = ctx
	key = filepath.Base(key)
	if err := os.Remove(filepath.Join(l.BaseDir, key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// KeyFromURL returns the file key of a URL issued by Put.
func (l *Local) KeyFromURL(url string) (string, bool) {
	key, ok := trimPrefix(url, l.URLPrefix)
	if !ok || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
