package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/docvault/internal/api"
	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/cloo-solutions/docvault/internal/service"
	"github.com/go-chi/chi/v5"
)

type IngestService interface {
	Ingest(ctx context.Context, input service.IngestInput) (*service.IngestResult, error)
}

type DocumentService interface {
	GetByHash(ctx context.Context, hash string) (*domain.Document, error)
	ListDocuments(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error)
	Versions(ctx context.Context, filename string) ([]*domain.Document, error)
	Delete(ctx context.Context, hash string) error
	DownloadURL(ctx context.Context, hash string) (string, error)
}

type ReindexService interface {
	Queue(ctx context.Context, hash string) (*domain.ReindexJob, error)
	GetJob(ctx context.Context, id string) (*domain.ReindexJob, error)
}

type DocumentHandler struct {
	ingest  IngestService
	docs    DocumentService
	reindex ReindexService
}

func NewDocumentHandler(ingest IngestService, docs DocumentService, reindex ReindexService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, docs: docs, reindex: reindex}
}

type IngestResponse struct {
	Outcome        string `json:"outcome"`
	ContentHash    string `json:"content_hash"`
	Filename       string `json:"filename"`
	ChunkCount     int    `json:"chunk_count"`
	FileSize       int64  `json:"file_size"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type DocumentResponse struct {
	ContentHash    string `json:"content_hash"`
	Filename       string `json:"filename"`
	FileSize       int64  `json:"file_size"`
	ChunkCount     int    `json:"chunk_count"`
	ConversationID string `json:"conversation_id,omitempty"`
	UploadedAt     string `json:"upload_timestamp"`
	LastIndexedAt  string `json:"last_indexed_timestamp"`
}

type ListDocumentsResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Cursor    string              `json:"cursor,omitempty"`
	HasMore   bool                `json:"has_more"`
}

type ReindexJobResponse struct {
	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

const timestampLayout = "2006-01-02T15:04:05Z"

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ContentHash:    d.ContentHash,
		Filename:       d.Filename,
		FileSize:       d.FileSize,
		ChunkCount:     d.ChunkCount,
		ConversationID: d.ConversationID,
		UploadedAt:     d.UploadedAt.UTC().Format(timestampLayout),
		LastIndexedAt:  d.LastIndexedAt.UTC().Format(timestampLayout),
	}
}

func documentsToResponse(docs []*domain.Document) []*DocumentResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentToResponse(d))
	}
	return out
}

// Upload ingests a multipart document submission.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	conversationID := r.FormValue("conversation_id")

	result, err := h.ingest.Ingest(r.Context(), service.IngestInput{
		Content:        file,
		Filename:       header.Filename,
		ConversationID: conversationID,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == service.OutcomeSkipped {
		status = http.StatusOK
	}

	api.Success(w, status, IngestResponse{
		Outcome:        string(result.Outcome),
		ContentHash:    result.ContentHash,
		Filename:       result.Filename,
		ChunkCount:     result.ChunkCount,
		FileSize:       result.FileSize,
		ConversationID: conversationID,
	})
}

// List returns one page of the documents registered for a conversation
// scope, newest upload first.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	out, err := h.docs.ListDocuments(r.Context(), service.ListDocumentsInput{
		ConversationID: q.Get("conversation_id"),
		Cursor:         q.Get("cursor"),
		Limit:          limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ListDocumentsResponse{
		Documents: documentsToResponse(out.Documents),
		Cursor:    out.Cursor,
		HasMore:   out.HasMore,
	})
}

// Versions returns every registered content version of a filename.
func (h *DocumentHandler) Versions(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	docs, err := h.docs.Versions(r.Context(), filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentsToResponse(docs))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if hash == "" {
		api.Error(w, http.StatusBadRequest, "hash is required")
		return
	}

	doc, err := h.docs.GetByHash(r.Context(), hash)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if hash == "" {
		api.Error(w, http.StatusBadRequest, "hash is required")
		return
	}

	if err := h.docs.Delete(r.Context(), hash); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"content_hash": hash, "status": "deleted"})
}

// Download hands out a direct URL for the archived original.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if hash == "" {
		api.Error(w, http.StatusBadRequest, "hash is required")
		return
	}

	url, err := h.docs.DownloadURL(r.Context(), hash)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"download_url": url})
}

// Reindex queues a rebuild of a document's chunk set.
func (h *DocumentHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if hash == "" {
		api.Error(w, http.StatusBadRequest, "hash is required")
		return
	}

	job, err := h.reindex.Queue(r.Context(), hash)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, ReindexJobResponse{
		ID:          job.ID,
		ContentHash: job.ContentHash,
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt.UTC().Format(timestampLayout),
	})
}

// ReindexStatus reports the state of a queued reindex job.
func (h *DocumentHandler) ReindexStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	job, err := h.reindex.GetJob(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ReindexJobResponse{
		ID:          job.ID,
		ContentHash: job.ContentHash,
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt.UTC().Format(timestampLayout),
	})
}
