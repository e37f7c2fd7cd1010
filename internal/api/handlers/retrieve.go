package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/docvault/internal/api"
	"github.com/cloo-solutions/docvault/internal/service"
)

type RetrievalService interface {
	Retrieve(ctx context.Context, query, conversationID string, topK int) ([]service.RetrievedChunk, error)
}

type RetrieveHandler struct {
	svc RetrievalService
}

func NewRetrieveHandler(svc RetrievalService) *RetrieveHandler {
	return &RetrieveHandler{svc: svc}
}

type RetrieveRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
	TopK           int    `json:"top_k"`
}

type RetrievedChunkResponse struct {
	Content     string   `json:"content"`
	Score       float64  `json:"score"`
	ContentHash string   `json:"content_hash"`
	Filename    string   `json:"filename"`
	ChunkIndex  int      `json:"chunk_index"`
	Headings    []string `json:"headings,omitempty"`
	Page        int      `json:"page,omitempty"`
}

type RetrieveResponse struct {
	Results []RetrievedChunkResponse `json:"results"`
}

func (h *RetrieveHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	chunks, err := h.svc.Retrieve(r.Context(), req.Query, req.ConversationID, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]RetrievedChunkResponse, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, RetrievedChunkResponse{
			Content:     c.Content,
			Score:       c.Score,
			ContentHash: c.ContentHash,
			Filename:    c.Filename,
			ChunkIndex:  c.ChunkIndex,
			Headings:    c.Headings,
			Page:        c.Page,
		})
	}

	api.Success(w, http.StatusOK, RetrieveResponse{Results: results})
}
