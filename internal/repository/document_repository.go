package repository

import (
	"context"

	"hu-tracker/internal/models"
)

// DocumentRepository handles document metadata; the file bytes live in blob storage
type DocumentRepository struct {
	db DBTX
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db DBTX) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, application_id, candidate_id, name, type, path, size, category, uploaded_at`

func scanDocument(row scanner) (models.Document, error) {
	var d models.Document
	err := row.Scan(
		&d.ID,
		&d.ApplicationID,
		&d.CandidateID,
		&d.Name,
		&d.Type,
		&d.Path,
		&d.Size,
		&d.Category,
		&d.UploadedAt,
	)
	return d, err
}

// DocumentFilter narrows List
type DocumentFilter struct {
	ApplicationID uint
	CandidateID   uint
	Category      models.DocumentCategory
}

// List returns documents, newest first
func (r *DocumentRepository) List(ctx context.Context, f DocumentFilter) ([]models.Document, error) {
	var w where
	if f.ApplicationID != 0 {
		w.add("application_id = $%d", f.ApplicationID)
	}
	if f.CandidateID != 0 {
		w.add("candidate_id = $%d", f.CandidateID)
	}
	if f.Category != "" {
		w.add("category = $%d", f.Category)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents`+w.String()+` ORDER BY uploaded_at DESC, id DESC`, w.args...)
	if err != nil {
		return nil, mapError("list documents", err)
	}
	docs, err := collect(rows, scanDocument)
	if err != nil {
		return nil, mapError("scan documents", err)
	}
	return docs, nil
}

// GetByID retrieves document metadata by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get document", "document", id, err)
	}
	return &d, nil
}

// Create records document metadata. Unknown application or candidate ids
// match workflow.ErrNotFound.
func (r *DocumentRepository) Create(ctx context.Context, d *models.Document) error {
	if d.Category == "" {
		d.Category = models.CategoryOther
	}
	query := `
		INSERT INTO documents (application_id, candidate_id, name, type, path, size, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		d.ApplicationID, d.CandidateID, d.Name, d.Type, d.Path, d.Size, d.Category,
	).Scan(&d.ID, &d.UploadedAt)
	if err != nil {
		return mapError("create document", err)
	}
	return nil
}

// Delete removes the row and returns it so the caller can drop the blob
func (r *DocumentRepository) Delete(ctx context.Context, id uint) (*models.Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, `DELETE FROM documents WHERE id = $1 RETURNING `+documentColumns, id))
	if err != nil {
		return nil, notFoundOr("delete document", "document", id, err)
	}
	return &d, nil
}

const candidateDocumentsClause = `
	WHERE candidate_id = $1
	   OR application_id IN (SELECT id FROM applications WHERE candidate_id = $1)`

func (r *DocumentRepository) listForCandidate(ctx context.Context, candidateID uint) ([]models.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents`+candidateDocumentsClause, candidateID)
	if err != nil {
		return nil, mapError("list candidate documents", err)
	}
	docs, err := collect(rows, scanDocument)
	if err != nil {
		return nil, mapError("scan documents", err)
	}
	return docs, nil
}

func (r *DocumentRepository) deleteForCandidate(ctx context.Context, candidateID uint) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents`+candidateDocumentsClause, candidateID); err != nil {
		return mapError("delete candidate documents", err)
	}
	return nil
}
