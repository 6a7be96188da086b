package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnect/pkg/client"
)

func TestReduceUpdateLikesTouchesOnlyMatchingPost(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: GetPosts, Payload: []client.Post{{ID: "a"}, {ID: "b", Likes: []client.Like{{ID: "l0", User: "x"}}}}})

	next := reduce(s, Action{Type: UpdateLikes, Payload: LikesPayload{PostID: "a", Likes: []client.Like{{ID: "l1", User: "u"}}}})

	require.Len(t, next.Posts.Posts, 2)
	assert.Equal(t, []client.Like{{ID: "l1", User: "u"}}, next.Posts.Posts[0].Likes)
	assert.Equal(t, []client.Like{{ID: "l0", User: "x"}}, next.Posts.Posts[1].Likes)
	assert.Empty(t, s.Posts.Posts[0].Likes, "previous state must not change")
}

func TestReduceDeletePost(t *testing.T) {
	s := reduce(initialState(), Action{Type: GetPosts, Payload: []client.Post{{ID: "a"}, {ID: "b"}}})
	s = reduce(s, Action{Type: GetPost, Payload: &client.Post{ID: "a"}})

	s = reduce(s, Action{Type: DeletePost, Payload: "a"})
	require.Len(t, s.Posts.Posts, 1)
	assert.Equal(t, "b", s.Posts.Posts[0].ID)
	assert.Nil(t, s.Posts.Post)
}

func TestReduceStatusTransitions(t *testing.T) {
	s := initialState()
	assert.Equal(t, StatusIdle, s.Posts.Status)

	s = reduce(s, Action{Type: PostLoading})
	assert.Equal(t, StatusLoading, s.Posts.Status)
	assert.Nil(t, s.Posts.Post)

	s = reduce(s, Action{Type: PostError, Payload: "boom"})
	assert.Equal(t, StatusError, s.Posts.Status)
	assert.Equal(t, "boom", s.Posts.Err)

	s = reduce(s, Action{Type: GetPost, Payload: &client.Post{ID: "p"}})
	assert.Equal(t, StatusLoaded, s.Posts.Status)
}

func TestReduceCommentsReplaceCurrentPost(t *testing.T) {
	s := reduce(initialState(), Action{Type: GetPost, Payload: &client.Post{ID: "p"}})
	s = reduce(s, Action{Type: AddComment, Payload: CommentsPayload{PostID: "p", Comments: []client.Comment{{ID: "c1", Text: "hi"}}}})
	require.NotNil(t, s.Posts.Post)
	assert.Len(t, s.Posts.Post.Comments, 1)

	s = reduce(s, Action{Type: RemoveComment, Payload: CommentsPayload{PostID: "other", Comments: nil}})
	assert.Len(t, s.Posts.Post.Comments, 1)
}

func TestReduceAuthErrorResetsSession(t *testing.T) {
	s := reduce(initialState(), Action{Type: LoginSuccess, Payload: "tok"})
	assert.True(t, s.Auth.IsAuthenticated)
	s = reduce(s, Action{Type: GetPosts, Payload: []client.Post{{ID: "a"}}})

	s = reduce(s, Action{Type: AuthError})
	assert.False(t, s.Auth.IsAuthenticated)
	assert.Empty(t, s.Auth.Token)
	assert.Empty(t, s.Posts.Posts)
}
