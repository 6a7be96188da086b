package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnect/internal/domain/entity"
	"github.com/oksasatya/devconnect/internal/domain/repository"
)

// newTestRepo connects to MONGO_URI and returns a repository over a
// throwaway database. The test is skipped when MONGO_URI is unset.
func newTestRepo(t *testing.T) *PostRepository {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, uri, 5*time.Second)
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("devconnect_test_%d", time.Now().UnixNano()))
	col := db.Collection("posts")
	require.NoError(t, EnsurePostIndexes(ctx, col))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return NewPostRepository(col)
}

func TestMongoSaveRejectsStaleVersion(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	p := &entity.Post{UserID: "u1", Text: "hello", Date: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, r.Create(ctx, p))
	assert.Equal(t, int64(0), p.Version)

	a, err := r.GetByID(ctx, p.ID)
	require.NoError(t, err)
	b, err := r.GetByID(ctx, p.ID)
	require.NoError(t, err)

	a.AddLike("u2")
	require.NoError(t, r.Save(ctx, a))
	assert.Equal(t, int64(1), a.Version)
	require.Len(t, a.Likes, 1)
	assert.NotEmpty(t, a.Likes[0].ID)

	b.AddLike("u3")
	assert.ErrorIs(t, r.Save(ctx, b), repository.ErrVersionConflict)

	got, err := r.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	require.Len(t, got.Likes, 1)
	assert.Equal(t, "u2", got.Likes[0].UserID)
}

func TestMongoSaveAfterDeleteIsNotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	p := &entity.Post{UserID: "u1", Text: "bye", Date: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, r.Create(ctx, p))

	loaded, err := r.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, p.ID))

	loaded.AddComment(entity.Comment{UserID: "u2", Text: "late", Date: time.Now().UTC()})
	assert.ErrorIs(t, r.Save(ctx, loaded), repository.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, p.ID), repository.ErrNotFound)

	_, err = r.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = r.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMongoListNewestFirst(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	old := &entity.Post{UserID: "u1", Text: "old", Date: base}
	require.NoError(t, r.Create(ctx, old))
	newer := &entity.Post{UserID: "u1", Text: "new", Date: base.Add(time.Hour)}
	require.NoError(t, r.Create(ctx, newer))
	tieA := &entity.Post{UserID: "u1", Text: "tie a", Date: base}
	require.NoError(t, r.Create(ctx, tieA))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, newer.ID, list[0].ID)
	// equal dates: later ObjectID first
	assert.Equal(t, tieA.ID, list[1].ID)
	assert.Equal(t, old.ID, list[2].ID)
	for _, p := range list {
		assert.NotNil(t, p.Likes)
		assert.NotNil(t, p.Comments)
	}
}
