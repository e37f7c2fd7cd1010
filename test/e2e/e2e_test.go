//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadResult struct {
	Outcome        string `json:"outcome"`
	ContentHash    string `json:"content_hash"`
	Filename       string `json:"filename"`
	ChunkCount     int    `json:"chunk_count"`
	FileSize       int64  `json:"file_size"`
	ConversationID string `json:"conversation_id"`
}

type documentResult struct {
	ContentHash    string `json:"content_hash"`
	Filename       string `json:"filename"`
	FileSize       int64  `json:"file_size"`
	ChunkCount     int    `json:"chunk_count"`
	ConversationID string `json:"conversation_id"`
	UploadedAt     string `json:"upload_timestamp"`
}

type listResult struct {
	Documents []documentResult `json:"documents"`
	Cursor    string           `json:"cursor"`
	HasMore   bool             `json:"has_more"`
}

type retrieveResult struct {
	Results []struct {
		Content     string  `json:"content"`
		Score       float64 `json:"score"`
		ContentHash string  `json:"content_hash"`
		Filename    string  `json:"filename"`
		ChunkIndex  int     `json:"chunk_index"`
	} `json:"results"`
}

type reindexJobResult struct {
	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
	Status      string `json:"status"`
}

func TestUploadAndRetrieve(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	code, resp, err := env.UploadDocument("notes.txt", "conv-1", "a lighthouse keeper logs every passing vessel")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code, "error: %s", resp.Error)

	var uploaded uploadResult
	require.NoError(t, json.Unmarshal(resp.Data, &uploaded))
	assert.Equal(t, "created", uploaded.Outcome)
	assert.NotEmpty(t, uploaded.ContentHash)
	assert.Equal(t, 1, uploaded.ChunkCount)

	// Same scope finds the chunk.
	code, resp, err = env.Post("/v1/retrieve", map[string]interface{}{
		"query":           "a lighthouse keeper logs every passing vessel",
		"conversation_id": "conv-1",
		"top_k":           3,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code, "error: %s", resp.Error)

	var retrieved retrieveResult
	require.NoError(t, json.Unmarshal(resp.Data, &retrieved))
	require.Len(t, retrieved.Results, 1)
	assert.Equal(t, uploaded.ContentHash, retrieved.Results[0].ContentHash)
	assert.Equal(t, "notes.txt", retrieved.Results[0].Filename)
	assert.InDelta(t, 1.0, retrieved.Results[0].Score, 0.01)

	// A different conversation sees nothing.
	code, resp, err = env.Post("/v1/retrieve", map[string]interface{}{
		"query":           "a lighthouse keeper logs every passing vessel",
		"conversation_id": "conv-other",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	retrieved = retrieveResult{}
	require.NoError(t, json.Unmarshal(resp.Data, &retrieved))
	assert.Empty(t, retrieved.Results)

	// Neither does the global scope.
	code, resp, err = env.Post("/v1/retrieve", map[string]interface{}{
		"query": "a lighthouse keeper logs every passing vessel",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	retrieved = retrieveResult{}
	require.NoError(t, json.Unmarshal(resp.Data, &retrieved))
	assert.Empty(t, retrieved.Results)
}

func TestDuplicateUpload(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	content := "duplicate detection happens on content, not filename"

	code, resp, err := env.UploadDocument("first.txt", "", content)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code, "error: %s", resp.Error)

	var first uploadResult
	require.NoError(t, json.Unmarshal(resp.Data, &first))
	assert.Equal(t, "created", first.Outcome)

	// Identical bytes in the same scope are a no-op, whatever the filename.
	code, resp, err = env.UploadDocument("second.txt", "", content)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)

	var second uploadResult
	require.NoError(t, json.Unmarshal(resp.Data, &second))
	assert.Equal(t, "duplicate", second.Outcome)
	assert.Equal(t, first.ContentHash, second.ContentHash)

	count, err := env.ChunkCount(first.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVersionSupersession(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	code, resp, err := env.UploadDocument("report.txt", "conv-1", "quarterly revenue grew by ten percent")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code, "error: %s", resp.Error)
	var v1 uploadResult
	require.NoError(t, json.Unmarshal(resp.Data, &v1))

	code, resp, err = env.UploadDocument("report.txt", "conv-1", "quarterly revenue grew by twelve percent after restatement")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code, "error: %s", resp.Error)
	var v2 uploadResult
	require.NoError(t, json.Unmarshal(resp.Data, &v2))
	assert.Equal(t, "updated", v2.Outcome)
	assert.NotEqual(t, v1.ContentHash, v2.ContentHash)

	// The superseded version's chunks are gone from the store.
	count, err := env.ChunkCount(v1.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = env.ChunkCount(v2.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Retrieval only surfaces the live version.
	code, resp, err = env.Post("/v1/retrieve", map[string]interface{}{
		"query":           "quarterly revenue grew by twelve percent after restatement",
		"conversation_id": "conv-1",
		"top_k":           5,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	var retrieved retrieveResult
	require.NoError(t, json.Unmarshal(resp.Data, &retrieved))
	require.Len(t, retrieved.Results, 1)
	assert.Equal(t, v2.ContentHash, retrieved.Results[0].ContentHash)

	// The registry still records both versions.
	code, resp, err = env.Get("/v1/documents/versions?filename=" + url.QueryEscape("report.txt"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	var versions []documentResult
	require.NoError(t, json.Unmarshal(resp.Data, &versions))
	require.Len(t, versions, 2)
}

func TestDeleteDocument(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	code, resp, err := env.UploadDocument("ephemeral.txt", "", "this document will not last long")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code, "error: %s", resp.Error)
	var uploaded uploadResult
	require.NoError(t, json.Unmarshal(resp.Data, &uploaded))

	code, _, err = env.Delete("/v1/documents/" + uploaded.ContentHash)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)

	code, _, err = env.Get("/v1/documents/" + uploaded.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, code)

	count, err := env.ChunkCount(uploaded.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReindexFlow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	code, resp, err := env.UploadDocument("manual.txt", "conv-1", "operating instructions for the fluid pump")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code, "error: %s", resp.Error)
	var uploaded uploadResult
	require.NoError(t, json.Unmarshal(resp.Data, &uploaded))

	code, resp, err = env.Post("/v1/documents/"+uploaded.ContentHash+"/reindex", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, code, "error: %s", resp.Error)

	var job reindexJobResult
	require.NoError(t, json.Unmarshal(resp.Data, &job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, uploaded.ContentHash, job.ContentHash)

	require.NoError(t, env.WaitForJobStatus(job.ID, "completed", 15*time.Second))

	// Chunks survived the rebuild and retrieval still works.
	count, err := env.ChunkCount(uploaded.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	code, resp, err = env.Post("/v1/retrieve", map[string]interface{}{
		"query":           "operating instructions for the fluid pump",
		"conversation_id": "conv-1",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	var retrieved retrieveResult
	require.NoError(t, json.Unmarshal(resp.Data, &retrieved))
	require.Len(t, retrieved.Results, 1)
	assert.Equal(t, uploaded.ContentHash, retrieved.Results[0].ContentHash)
}

func TestReindexUnknownDocument(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	code, _, err := env.Post("/v1/documents/deadbeef/reindex", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListPagination(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	for i := 0; i < 3; i++ {
		code, resp, err := env.UploadDocument(
			fmt.Sprintf("doc-%d.txt", i), "conv-page",
			fmt.Sprintf("paged document number %d with unique content", i))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, code, "error: %s", resp.Error)
		// Keyset ordering is by upload timestamp; keep them distinct.
		time.Sleep(20 * time.Millisecond)
	}

	code, resp, err := env.Get("/v1/documents?conversation_id=conv-page&limit=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)

	var page1 listResult
	require.NoError(t, json.Unmarshal(resp.Data, &page1))
	require.Len(t, page1.Documents, 2)
	assert.True(t, page1.HasMore)
	require.NotEmpty(t, page1.Cursor)
	assert.Equal(t, "doc-2.txt", page1.Documents[0].Filename)

	code, resp, err = env.Get("/v1/documents?conversation_id=conv-page&limit=2&cursor=" + url.QueryEscape(page1.Cursor))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)

	var page2 listResult
	require.NoError(t, json.Unmarshal(resp.Data, &page2))
	require.Len(t, page2.Documents, 1)
	assert.False(t, page2.HasMore)
	assert.Equal(t, "doc-0.txt", page2.Documents[0].Filename)
}

func TestDownloadOriginal(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	original := "archived bytes must round-trip exactly"
	code, resp, err := env.UploadDocument("archive-me.txt", "", original)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code, "error: %s", resp.Error)
	var uploaded uploadResult
	require.NoError(t, json.Unmarshal(resp.Data, &uploaded))

	code, resp, err = env.Get("/v1/documents/" + uploaded.ContentHash + "/download")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code, "error: %s", resp.Error)

	var dl struct {
		URL string `json:"download_url"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &dl))
	require.NotEmpty(t, dl.URL)

	dlResp, err := env.HTTPClient.Get(dl.URL)
	require.NoError(t, err)
	defer dlResp.Body.Close()
	require.Equal(t, http.StatusOK, dlResp.StatusCode)
}
