package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hu-tracker/internal/models"
	"hu-tracker/internal/storage"
	"hu-tracker/internal/workflow"
)

type fakeDocuments struct {
	rows      map[uint]models.Document
	next      uint
	createErr error
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{rows: map[uint]models.Document{}}
}

func (f *fakeDocuments) GetByID(_ context.Context, id uint) (*models.Document, error) {
	d, ok := f.rows[id]
	if !ok {
		return nil, workflow.NotFound("document", id)
	}
	return &d, nil
}

func (f *fakeDocuments) Create(_ context.Context, d *models.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.next++
	d.ID = f.next
	f.rows[d.ID] = *d
	return nil
}

func (f *fakeDocuments) Delete(_ context.Context, id uint) (*models.Document, error) {
	d, ok := f.rows[id]
	if !ok {
		return nil, workflow.NotFound("document", id)
	}
	delete(f.rows, id)
	return &d, nil
}

// failingDeletes wraps a blob store whose Delete always fails
type failingDeletes struct {
	storage.BlobStore
}

func (failingDeletes) Delete(context.Context, string) error {
	return errors.New("bucket unreachable")
}

// recordingPuts remembers every key written
type recordingPuts struct {
	storage.BlobStore
	keys []string
}

func (r *recordingPuts) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	r.keys = append(r.keys, key)
	return r.BlobStore.Put(ctx, key, body, contentType)
}

func newDocumentService(t *testing.T, max int64) (*DocumentService, *fakeDocuments, storage.BlobStore) {
	t.Helper()
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	docs := newFakeDocuments()
	return NewDocumentService(docs, blobs, max), docs, blobs
}

func ptr(v uint) *uint { return &v }

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()
	svc, docs, blobs := newDocumentService(t, 1024)

	doc, err := svc.Upload(ctx, Upload{
		CandidateID: ptr(3),
		Filename:    "Lettre.Docx",
		Size:        5,
		Content:     strings.NewReader("hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, "DOCX", doc.Type)
	assert.Equal(t, models.CategoryOther, doc.Category)
	assert.Equal(t, int64(5), doc.Size)
	assert.True(t, strings.HasPrefix(doc.Path, "uploads/"))
	assert.Contains(t, docs.rows, doc.ID)

	ok, err := blobs.Exists(ctx, doc.Path)
	require.NoError(t, err)
	assert.True(t, ok)

	got, rc, err := svc.Open(ctx, doc.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, doc.Name, got.Name)
}

func TestDocumentService_UploadValidation(t *testing.T) {
	svc, docs, _ := newDocumentService(t, 10)

	tests := []struct {
		name string
		in   Upload
		want error
	}{
		{"no owner", Upload{Filename: "a.pdf"}, ErrMissingOwner},
		{"extension", Upload{CandidateID: ptr(1), Filename: "a.exe"}, ErrInvalidFileType},
		{"no extension", Upload{CandidateID: ptr(1), Filename: "README"}, ErrInvalidFileType},
		{"declared size", Upload{ApplicationID: ptr(1), Filename: "a.pdf", Size: 11}, ErrFileTooLarge},
		{"actual size", Upload{ApplicationID: ptr(1), Filename: "a.pdf", Size: 1, Content: strings.NewReader("01234567890")}, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.in.Content == nil {
				tt.in.Content = strings.NewReader("x")
			}
			_, err := svc.Upload(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, docs.rows)
}

func TestDocumentService_UploadRowFailureDropsBlob(t *testing.T) {
	ctx := context.Background()
	svc, docs, blobs := newDocumentService(t, 1024)
	rec := &recordingPuts{BlobStore: blobs}
	svc.blobs = rec
	docs.createErr = workflow.NotFound("application", 99)

	_, err := svc.Upload(ctx, Upload{ApplicationID: ptr(99), Filename: "a.pdf", Size: 1, Content: strings.NewReader("x")})
	require.ErrorIs(t, err, workflow.ErrNotFound)

	err = svc.Store(ctx, &models.Document{Name: "probe"}, "probe.pdf", []byte("x"), "application/pdf")
	require.ErrorIs(t, err, workflow.ErrNotFound)

	require.Len(t, rec.keys, 2)
	for _, key := range rec.keys {
		ok, err := blobs.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "blob %s left behind", key)
	}
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, docs, blobs := newDocumentService(t, 1024)

	doc, err := svc.Upload(ctx, Upload{CandidateID: ptr(1), Filename: "a.png", Size: 1, Content: strings.NewReader("x")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, doc.ID))
	assert.NotContains(t, docs.rows, doc.ID)
	ok, err := blobs.Exists(ctx, doc.Path)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, svc.Delete(ctx, doc.ID), workflow.ErrNotFound)
}

func TestDocumentService_DeleteIgnoresBlobFailure(t *testing.T) {
	ctx := context.Background()
	svc, docs, blobs := newDocumentService(t, 1024)

	doc, err := svc.Upload(ctx, Upload{CandidateID: ptr(1), Filename: "a.pdf", Size: 1, Content: strings.NewReader("x")})
	require.NoError(t, err)

	svc.blobs = failingDeletes{blobs}
	require.NoError(t, svc.Delete(ctx, doc.ID))
	assert.NotContains(t, docs.rows, doc.ID)
}

func TestDocumentService_Store(t *testing.T) {
	ctx := context.Background()
	svc, docs, blobs := newDocumentService(t, 1)

	doc := &models.Document{Name: "Diplôme HU", Type: "PDF", Category: models.CategoryDiploma}
	// generated files are not subject to the upload limit
	require.NoError(t, svc.Store(ctx, doc, "diplome_hu_1_1.pdf", []byte("%PDF-1.3 data"), "application/pdf"))

	assert.Equal(t, int64(13), doc.Size)
	assert.True(t, strings.HasPrefix(doc.Path, "generated/"))
	assert.True(t, strings.HasSuffix(doc.Path, ".pdf"))
	assert.Contains(t, docs.rows, doc.ID)

	ok, err := blobs.Exists(ctx, doc.Path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "PDF", FileType("x.pdf"))
	assert.Equal(t, "JPEG", FileType("photo.JpEg"))
	assert.Equal(t, "", FileType("noext"))
}
