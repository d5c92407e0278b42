package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"hu-tracker/internal/models"
	"hu-tracker/internal/storage"
)

var (
	// ErrInvalidRequest marks a request refused before any state is touched
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidFileType = errors.New("file type not allowed")
	ErrFileTooLarge    = errors.New("file too large")
	ErrMissingOwner    = errors.New("document needs an application or a candidate")
)

// allowedExtensions are the upload types accepted by the tracker
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// DocumentStore is the document metadata persistence the service needs
type DocumentStore interface {
	GetByID(ctx context.Context, id uint) (*models.Document, error)
	Create(ctx context.Context, d *models.Document) error
	Delete(ctx context.Context, id uint) (*models.Document, error)
}

// DocumentService keeps document rows and their blobs in step
type DocumentService struct {
	docs          DocumentStore
	blobs         storage.BlobStore
	maxUploadSize int64
}

// NewDocumentService creates a new document service
func NewDocumentService(docs DocumentStore, blobs storage.BlobStore, maxUploadSize int64) *DocumentService {
	return &DocumentService{
		docs:          docs,
		blobs:         blobs,
		maxUploadSize: maxUploadSize,
	}
}

// MaxUploadSize returns the upload limit in bytes
func (s *DocumentService) MaxUploadSize() int64 {
	return s.maxUploadSize
}

// Upload describes a file sent by a user
type Upload struct {
	ApplicationID *uint
	CandidateID   *uint
	Category      models.DocumentCategory
	Filename      string
	Size          int64
	Content       io.Reader
}

// FileType returns the upper-case extension stored as the document type
func FileType(filename string) string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// ValidateUpload checks name, size and owner before anything is stored
func (s *DocumentService) ValidateUpload(u Upload) error {
	if u.ApplicationID == nil && u.CandidateID == nil {
		return ErrMissingOwner
	}
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q (allowed: pdf, doc, docx, jpg, jpeg, png)", ErrInvalidFileType, ext)
	}
	if u.Size > s.maxUploadSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, u.Size, s.maxUploadSize)
	}
	return nil
}

// Upload stores the blob first, then the row. When the row cannot be written
// the blob is removed again.
func (s *DocumentService) Upload(ctx context.Context, u Upload) (*models.Document, error) {
	if err := s.ValidateUpload(u); err != nil {
		return nil, err
	}
	if u.Category == "" {
		u.Category = models.CategoryOther
	}

	key := storage.NewKey("uploads", u.Filename)
	// one extra byte tells a lying Size apart from an exact fit
	limited := &io.LimitedReader{R: u.Content, N: s.maxUploadSize + 1}
	if err := s.blobs.Put(ctx, key, limited, storage.ContentType(u.Filename)); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if limited.N == 0 {
		s.dropBlob(ctx, key)
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.maxUploadSize)
	}

	doc := &models.Document{
		ApplicationID: u.ApplicationID,
		CandidateID:   u.CandidateID,
		Name:          filepath.Base(u.Filename),
		Type:          FileType(u.Filename),
		Path:          key,
		Size:          s.maxUploadSize + 1 - limited.N,
		Category:      u.Category,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.dropBlob(ctx, key)
		return nil, err
	}
	return doc, nil
}

// Store records a generated file that is already in memory. filename only
// decides the extension of the storage key.
func (s *DocumentService) Store(ctx context.Context, doc *models.Document, filename string, data []byte, contentType string) error {
	doc.Path = storage.NewKey("generated", filename)
	doc.Size = int64(len(data))
	if err := s.blobs.Put(ctx, doc.Path, bytes.NewReader(data), contentType); err != nil {
		return fmt.Errorf("failed to store generated file: %w", err)
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.dropBlob(ctx, doc.Path)
		return err
	}
	return nil
}

// Open returns the document row and a reader on its content
func (s *DocumentService) Open(ctx context.Context, id uint) (*models.Document, io.ReadCloser, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, doc.Path)
	if err != nil {
		return doc, nil, err
	}
	return doc, rc, nil
}

// Delete removes the row, then the blob. A blob failure is logged only.
func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	doc, err := s.docs.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.dropBlob(ctx, doc.Path)
	return nil
}

// RemoveBlobs drops the files of documents whose rows are already gone
func (s *DocumentService) RemoveBlobs(ctx context.Context, docs []models.Document) {
	for _, d := range docs {
		s.dropBlob(ctx, d.Path)
	}
}

func (s *DocumentService) dropBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	err := s.blobs.Delete(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Failed to delete stored file", "path", key, "error", err)
	}
}
