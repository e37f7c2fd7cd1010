//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/cloo-solutions/docvault/internal/pagination"
	"github.com/cloo-solutions/docvault/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integrationDocument(hash, filename, conversationID string, uploadedAt time.Time) *domain.Document {
	return &domain.Document{
		ContentHash:    hash,
		Filename:       filename,
		FileSize:       256,
		ChunkCount:     4,
		ConversationID: conversationID,
		UploadedAt:     uploadedAt,
		LastIndexedAt:  uploadedAt,
	}
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.Create(ctx, integrationDocument("hash-1", "report.pdf", "conv-1", now)))

	got, err := repo.GetByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, "conv-1", got.ConversationID)
	assert.Equal(t, int64(256), got.FileSize)
	assert.True(t, now.Equal(got.UploadedAt))

	_, err = repo.GetByHash(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_DuplicateHash(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.Create(ctx, integrationDocument("hash-dup", "a.txt", "conv-1", now)))

	// Same hash under a different filename and scope is still the same content.
	err := repo.Create(ctx, integrationDocument("hash-dup", "b.txt", "conv-2", now))
	assert.ErrorIs(t, err, domain.ErrDuplicateDocument)
}

func TestDocumentRepository_NullConversationScope(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.Create(ctx, integrationDocument("hash-global", "global.txt", "", now)))
	require.NoError(t, repo.Create(ctx, integrationDocument("hash-scoped", "scoped.txt", "conv-1", now)))

	global, err := repo.ListByConversation(ctx, "")
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "hash-global", global[0].ContentHash)
	assert.Empty(t, global[0].ConversationID)

	scoped, err := repo.ListByConversation(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "hash-scoped", scoped[0].ContentHash)
}

func TestDocumentRepository_ListByFilenameOrder(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)
	base := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.Create(ctx, integrationDocument("hash-v2", "notes.txt", "conv-1", base)))
	require.NoError(t, repo.Create(ctx, integrationDocument("hash-v1", "notes.txt", "conv-1", base.Add(-time.Hour))))
	require.NoError(t, repo.Create(ctx, integrationDocument("hash-other", "other.txt", "conv-1", base)))

	versions, err := repo.ListByFilename(ctx, "notes.txt")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "hash-v1", versions[0].ContentHash)
	assert.Equal(t, "hash-v2", versions[1].ContentHash)
}

func TestDocumentRepository_ListByConversationPage(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i, hash := range []string{"hash-a", "hash-b", "hash-c"} {
		doc := integrationDocument(hash, hash+".txt", "conv-1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, doc))
	}

	page1, err := repo.ListByConversationPage(ctx, "conv-1", nil, 2)
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	assert.Equal(t, "hash-c", page1.Items[0].ContentHash)
	assert.True(t, page1.HasMore)
	require.NotEmpty(t, page1.Cursor)

	cursor, err := pagination.DecodeCursor(page1.Cursor)
	require.NoError(t, err)

	page2, err := repo.ListByConversationPage(ctx, "conv-1", cursor, 2)
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	assert.Equal(t, "hash-a", page2.Items[0].ContentHash)
	assert.False(t, page2.HasMore)
}

func TestDocumentRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.Create(ctx, integrationDocument("hash-upd", "upd.txt", "conv-1", now)))

	later := now.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, "hash-upd", 9, later))

	got, err := repo.GetByHash(ctx, "hash-upd")
	require.NoError(t, err)
	assert.Equal(t, 9, got.ChunkCount)
	assert.True(t, later.Equal(got.LastIndexedAt))

	assert.ErrorIs(t, repo.Update(ctx, "missing", 1, later), domain.ErrDocumentNotFound)

	require.NoError(t, repo.Delete(ctx, "hash-upd"))
	_, err = repo.GetByHash(ctx, "hash-upd")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "hash-upd"), domain.ErrDocumentNotFound)
}
