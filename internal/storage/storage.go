// Package storage keeps uploaded and generated files outside the database.
// Rows only hold the key returned by Put.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"hu-tracker/internal/config"
)

// ErrNotFound is returned when no blob exists under a key
var ErrNotFound = errors.New("blob not found")

// BlobStore persists opaque file contents under string keys
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// New builds the blob store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case config.StorageLocal, "":
		return NewLocalStore(cfg.LocalDir)
	case config.StorageS3:
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// NewKey returns a unique key under prefix that keeps the extension of filename,
// e.g. "uploads/3f2c...e1.pdf".
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	key := uuid.NewString() + ext
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}

// ContentType guesses the MIME type served on download from the file extension
func ContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	return "application/octet-stream"
}
