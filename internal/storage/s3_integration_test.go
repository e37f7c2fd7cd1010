//go:build integration

package storage

import (
	"context"
	"net/http"
	"testing"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/cloo-solutions/docvault/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3Client(ctx context.Context, t *testing.T) (*S3Client, func()) {
	rc := testutil.NewRustFSContainer(ctx, t)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "docvault-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))

	return client, func() { rc.Terminate(ctx) }
}

func TestS3Client_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newTestS3Client(ctx, t)
	defer cleanup()

	key := "docs/hash-1/report.pdf"
	content := []byte("original document bytes")

	require.NoError(t, client.Put(ctx, key, content))

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	require.NoError(t, client.Delete(ctx, key))

	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrArchiveNotFound)
}

func TestS3Client_GetMissingKey(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newTestS3Client(ctx, t)
	defer cleanup()

	_, err := client.Get(ctx, "docs/never-stored/file.txt")
	assert.ErrorIs(t, err, domain.ErrArchiveNotFound)
}

func TestS3Client_GenerateDownloadURL(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newTestS3Client(ctx, t)
	defer cleanup()

	key := "docs/hash-url/notes.txt"
	content := []byte("downloadable")
	require.NoError(t, client.Put(ctx, key, content))

	url, err := client.GenerateDownloadURL(ctx, key)
	require.NoError(t, err)
	require.NotEmpty(t, url)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
