package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/service"
	"hu-tracker/internal/storage"
)

// multipart overhead allowed on top of the file itself
const formOverhead = 1 << 20

// DocumentHandler handles document upload and download
type DocumentHandler struct {
	documents *repository.DocumentRepository
	docs      *service.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *repository.DocumentRepository, docs *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents, docs: docs}
}

func (h *DocumentHandler) list(w http.ResponseWriter, r *http.Request, f repository.DocumentFilter) {
	docs, err := h.documents.List(r.Context(), f)
	if err != nil {
		respondWithErr(w, r, "Failed to list documents", err)
		return
	}
	respondWithJSON(w, http.StatusOK, docs)
}

// List lists documents
// @Summary List documents
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param application_id query int false "Filter by application"
// @Param candidate_id query int false "Filter by candidate"
// @Param category query string false "Filter by category"
// @Success 200 {array} models.Document
// @Router /documents [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	applicationID, err := queryID(r, "application_id")
	if err != nil {
		respondWithErr(w, r, "Invalid filter", err)
		return
	}
	candidateID, err := queryID(r, "candidate_id")
	if err != nil {
		respondWithErr(w, r, "Invalid filter", err)
		return
	}
	h.list(w, r, repository.DocumentFilter{
		ApplicationID: applicationID,
		CandidateID:   candidateID,
		Category:      models.DocumentCategory(r.URL.Query().Get("category")),
	})
}

// ByApplication lists the documents of an application
// @Summary Documents of an application
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param applicationId path int true "Application ID"
// @Success 200 {array} models.Document
// @Router /documents/application/{applicationId} [get]
func (h *DocumentHandler) ByApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "applicationId")
	if err != nil {
		respondWithErr(w, r, "Invalid application id", err)
		return
	}
	h.list(w, r, repository.DocumentFilter{ApplicationID: id})
}

// ByCandidate lists the documents of a candidate
// @Summary Documents of a candidate
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param candidateId path int true "Candidate ID"
// @Success 200 {array} models.Document
// @Router /documents/candidate/{candidateId} [get]
func (h *DocumentHandler) ByCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "candidateId")
	if err != nil {
		respondWithErr(w, r, "Invalid candidate id", err)
		return
	}
	h.list(w, r, repository.DocumentFilter{CandidateID: id})
}

// formID parses an optional id form value
func formID(r *http.Request, name string) (*uint, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: invalid %s %q", errValidation, name, raw)
	}
	v := uint(id)
	return &v, nil
}

// Upload stores a file sent as multipart field "document"
// @Summary Upload document
// @Description Accepts pdf, doc, docx, jpg, jpeg and png files up to the configured size.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param document formData file true "File"
// @Param application_id formData int false "Owning application"
// @Param candidate_id formData int false "Owning candidate"
// @Param category formData string false "Category"
// @Success 201 {object} models.Document
// @Failure 400 {object} map[string]string "Invalid file type or missing owner"
// @Failure 413 {object} map[string]string "File too large"
// @Router /documents/upload [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.docs.MaxUploadSize()+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondWithErr(w, r, "Upload rejected", fmt.Errorf("%w: max %d bytes", service.ErrFileTooLarge, h.docs.MaxUploadSize()))
			return
		}
		respondWithErr(w, r, "Upload rejected", fmt.Errorf("%w: %s", errValidation, "expected a multipart form"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("document")
	if err != nil {
		respondWithErr(w, r, "Upload rejected", fmt.Errorf("%w: %s", errValidation, "no file in field \"document\""))
		return
	}
	defer file.Close()

	applicationID, err := formID(r, "application_id")
	if err != nil {
		respondWithErr(w, r, "Upload rejected", err)
		return
	}
	candidateID, err := formID(r, "candidate_id")
	if err != nil {
		respondWithErr(w, r, "Upload rejected", err)
		return
	}

	doc, err := h.docs.Upload(r.Context(), service.Upload{
		ApplicationID: applicationID,
		CandidateID:   candidateID,
		Category:      models.DocumentCategory(r.FormValue("category")),
		Filename:      header.Filename,
		Size:          header.Size,
		Content:       file,
	})
	if err != nil {
		respondWithErr(w, r, "Failed to upload document", err, "filename", header.Filename)
		return
	}
	respondWithJSON(w, http.StatusCreated, doc)
}

// downloadName keeps the stored extension on names that have none
func downloadName(doc *models.Document) string {
	if path.Ext(doc.Name) != "" {
		return doc.Name
	}
	return doc.Name + path.Ext(doc.Path)
}

// Download streams the content of a document
// @Summary Download document
// @Tags Documents
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string "Document not found"
// @Router /documents/download/{id} [get]
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid document id", err)
		return
	}
	doc, rc, err := h.docs.Open(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to open document", err, "document_id", id)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", storage.ContentType(doc.Path))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": downloadName(doc)}))
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("Document download interrupted", "document_id", id, "error", err)
	}
}

// Get returns the metadata of a document
// @Summary Get document
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} models.Document
// @Failure 404 {object} map[string]string "Document not found"
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid document id", err)
		return
	}
	doc, err := h.documents.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get document", err, "document_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// Delete removes a document and its file
// @Summary Delete document
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Document not found"
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid document id", err)
		return
	}
	if err := h.docs.Delete(r.Context(), id); err != nil {
		respondWithErr(w, r, "Failed to delete document", err, "document_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}
