package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/docvault/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRetrievalService struct {
	mock.Mock
}

func (m *MockRetrievalService) Retrieve(ctx context.Context, query, conversationID string, topK int) ([]service.RetrievedChunk, error) {
	args := m.Called(ctx, query, conversationID, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.RetrievedChunk), args.Error(1)
}

func retrieveRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/v1/retrieve", bytes.NewReader(payload))
}

func TestRetrieveHandler_Success(t *testing.T) {
	svc := new(MockRetrievalService)
	svc.On("Retrieve", mock.Anything, "what is the plan", "conv-1", 3).Return([]service.RetrievedChunk{
		{Content: "the plan is simple", Score: 0.92, ContentHash: "h1", Filename: "plan.txt", ChunkIndex: 0},
	}, nil)

	handler := NewRetrieveHandler(svc)

	w := httptest.NewRecorder()
	handler.Retrieve(w, retrieveRequest(t, RetrieveRequest{
		Query:          "what is the plan",
		ConversationID: "conv-1",
		TopK:           3,
	}))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data RetrieveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "the plan is simple", resp.Data.Results[0].Content)
	assert.Equal(t, "h1", resp.Data.Results[0].ContentHash)
	svc.AssertExpectations(t)
}

func TestRetrieveHandler_EmptyScope(t *testing.T) {
	svc := new(MockRetrievalService)
	svc.On("Retrieve", mock.Anything, "anything", "conv-empty", 0).Return([]service.RetrievedChunk{}, nil)

	handler := NewRetrieveHandler(svc)

	w := httptest.NewRecorder()
	handler.Retrieve(w, retrieveRequest(t, RetrieveRequest{
		Query:          "anything",
		ConversationID: "conv-empty",
	}))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data RetrieveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Results)
}

func TestRetrieveHandler_MissingQuery(t *testing.T) {
	handler := NewRetrieveHandler(new(MockRetrievalService))

	w := httptest.NewRecorder()
	handler.Retrieve(w, retrieveRequest(t, RetrieveRequest{ConversationID: "conv-1"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetrieveHandler_InvalidBody(t *testing.T) {
	handler := NewRetrieveHandler(new(MockRetrievalService))

	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
