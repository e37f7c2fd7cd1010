package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultTimeout = 120 * time.Second

// HTTPLoader calls an external structure-aware parser service over HTTP. The
// service accepts a multipart upload and returns JSON segments with heading
// and page metadata.
type HTTPLoader struct {
	baseURL    string
	httpClient *http.Client
}

// parsedSegment is the parser service's wire shape for one segment.
type parsedSegment struct {
	Text       string   `json:"text"`
	Headings   []string `json:"headings,omitempty"`
	PageNumber int      `json:"page_number,omitempty"`
}

func NewHTTPLoader(baseURL string) *HTTPLoader {
	return &HTTPLoader{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewHTTPLoaderWithClient allows injecting a client, used by tests.
func NewHTTPLoaderWithClient(baseURL string, client *http.Client) *HTTPLoader {
	return &HTTPLoader{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Load posts the document to the parser service and returns its segments in
// document order.
func (l *HTTPLoader) Load(ctx context.Context, content []byte, filename string) ([]Segment, error) {
	var requestBody bytes.Buffer
	mw := multipart.NewWriter(&requestBody)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to write file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v1/parse", &requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parser service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("parser service error: %s: %s", resp.Status, string(body))
	}

	var parsed []parsedSegment
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	segments := make([]Segment, 0, len(parsed))
	for _, p := range parsed {
		if p.Text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     p.Text,
			Headings: p.Headings,
			Page:     p.PageNumber,
		})
	}

	return segments, nil
}
