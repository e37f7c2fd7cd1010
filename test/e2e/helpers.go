//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/docvault/internal/api/handlers"
	"github.com/cloo-solutions/docvault/internal/jobs"
	"github.com/cloo-solutions/docvault/internal/repository"
	"github.com/cloo-solutions/docvault/internal/server"
	"github.com/cloo-solutions/docvault/internal/service"
	"github.com/cloo-solutions/docvault/internal/storage"
	"github.com/cloo-solutions/docvault/internal/testutil"
	"github.com/cloo-solutions/docvault/internal/vectorstore"
	"github.com/jackc/pgx/v5/pgxpool"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "docvault-e2e",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, s3Client, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// hashEmbedder produces deterministic embeddings from token hashes, so
// identical text always embeds identically and similar text scores high.
// It stands in for the OpenAI client, which e2e runs cannot call.
type hashEmbedder struct {
	dims int
}

func (h *hashEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, h.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		f := fnv.New32a()
		f.Write([]byte(token))
		v[int(f.Sum32())%h.dims] += 1
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	} else {
		v[0] = 1
	}
	return v, nil
}

func (h *hashEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := h.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, func()) {
	documentRepo := repository.NewDocumentRepository(pool)
	reindexJobRepo := repository.NewReindexJobRepository(pool)
	chunkStore := vectorstore.NewPgVectorStore(pool)
	embedder := &hashEmbedder{dims: 1536}

	ingestSvc := service.NewIngestService(documentRepo, chunkStore, embedder, nil, s3Client)
	retrievalSvc := service.NewRetrievalService(chunkStore, embedder)
	docSvc := service.NewDocumentService(documentRepo, chunkStore, s3Client)
	reindexSvc := service.NewReindexService(documentRepo, chunkStore, s3Client, reindexJobRepo, ingestSvc)

	processor := jobs.NewReindexWorker(reindexJobRepo, reindexSvc)
	worker := jobs.NewWorker(processor, time.Second)
	go worker.Start(context.Background())

	cfg := server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(ingestSvc, docSvc, reindexSvc),
		RetrieveHandler: handlers.NewRetrieveHandler(retrievalSvc),
	}

	router := server.NewRouter(cfg)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		worker.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not become ready at %s", url)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// APIResponse represents the standard API response format
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (int, *APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (int, *APIResponse, error) {
	return e.doRequest("POST", path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (int, *APIResponse, error) {
	return e.doRequest("DELETE", path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (int, *APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

// UploadDocument uploads content as a multipart document submission
func (e *E2ETestEnv) UploadDocument(filename, conversationID, content string) (int, *APIResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, nil, err
	}
	if _, err := io.WriteString(part, content); err != nil {
		return 0, nil, err
	}
	if conversationID != "" {
		if err := writer.WriteField("conversation_id", conversationID); err != nil {
			return 0, nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequest("POST", e.ServerURL+"/v1/documents", &body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func decodeResponse(resp *http.Response) (int, *APIResponse, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to parse response %q: %w", string(respBody), err)
	}

	return resp.StatusCode, &apiResp, nil
}

// ChunkCount returns the number of chunks stored for a content hash
func (e *E2ETestEnv) ChunkCount(hash string) (int, error) {
	var count int
	err := e.Pool.QueryRow(e.Ctx, "SELECT COUNT(*) FROM document_chunks WHERE content_hash = $1", hash).Scan(&count)
	return count, err
}

// WaitForJobStatus polls a reindex job until it reaches the wanted status
func (e *E2ETestEnv) WaitForJobStatus(jobID, want string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		code, resp, err := e.Get("/v1/reindex-jobs/" + jobID)
		if err == nil && code == http.StatusOK {
			var job struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(resp.Data, &job); err == nil && job.Status == want {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("job %s did not reach status %s within %s", jobID, want, timeout)
}
