package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oksasatya/devconnect/internal/domain/entity"
	"github.com/oksasatya/devconnect/internal/domain/repository"
)

func TestToDocumentAssignsMissingIDs(t *testing.T) {
	existing := bson.NewObjectID()
	p := &entity.Post{
		ID:     bson.NewObjectID().Hex(),
		UserID: "u1",
		Text:   "hello",
		Likes:  []entity.Like{{UserID: "u2"}, {ID: existing.Hex(), UserID: "u3"}},
		Comments: []entity.Comment{
			{UserID: "u2", Text: "nice", Date: time.Unix(10, 0).UTC()},
		},
		Version: 4,
	}

	doc, err := toDocument(p)
	require.NoError(t, err)
	require.Len(t, doc.Likes, 2)
	assert.False(t, doc.Likes[0].ID.IsZero())
	assert.Equal(t, existing, doc.Likes[1].ID)
	require.Len(t, doc.Comments, 1)
	assert.False(t, doc.Comments[0].ID.IsZero())
	assert.Equal(t, int64(4), doc.Version)

	back := toEntity(doc)
	assert.Equal(t, p.ID, back.ID)
	assert.Equal(t, "u2", back.Likes[0].UserID)
	assert.Equal(t, existing.Hex(), back.Likes[1].ID)
	assert.Equal(t, "nice", back.Comments[0].Text)
}

func TestToDocumentRejectsMalformedID(t *testing.T) {
	_, err := toDocument(&entity.Post{ID: "not-an-object-id"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestToEntityEmptyListsAreNotNil(t *testing.T) {
	p := toEntity(&postDocument{ID: bson.NewObjectID()})
	assert.NotNil(t, p.Likes)
	assert.NotNil(t, p.Comments)
}
