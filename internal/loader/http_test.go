package loader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPLoader_Load(t *testing.T) {
	t.Run("parses segments from service response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/v1/parse", r.URL.Path)

			err := r.ParseMultipartForm(1 << 20)
			require.NoError(t, err)
			_, header, err := r.FormFile("file")
			require.NoError(t, err)
			assert.Equal(t, "report.pdf", header.Filename)

			json.NewEncoder(w).Encode([]parsedSegment{
				{Text: "Intro paragraph", Headings: []string{"Introduction"}, PageNumber: 1},
				{Text: "", PageNumber: 1}, // empty text is dropped
				{Text: "Table summary", Headings: []string{"Results", "Tables"}, PageNumber: 3},
			})
		}))
		defer srv.Close()

		l := NewHTTPLoader(srv.URL)
		segments, err := l.Load(context.Background(), []byte("%PDF-1.7"), "report.pdf")
		require.NoError(t, err)

		require.Len(t, segments, 2)
		assert.Equal(t, "Intro paragraph", segments[0].Text)
		assert.Equal(t, []string{"Introduction"}, segments[0].Headings)
		assert.Equal(t, 1, segments[0].Page)
		assert.Equal(t, 3, segments[1].Page)
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unsupported format", http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		l := NewHTTPLoader(srv.URL)
		_, err := l.Load(context.Background(), []byte("garbage"), "broken.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parser service error")
	})

	t.Run("context cancellation aborts the request", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		l := NewHTTPLoader(srv.URL)
		_, err := l.Load(ctx, []byte("data"), "doc.docx")
		require.Error(t, err)
	})
}
