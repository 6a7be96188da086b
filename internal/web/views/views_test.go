package views

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnect/pkg/client"
)

func render(t *testing.T, name string, data any) string {
	t.Helper()
	tpl, err := Templates()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Render(tpl, &buf, name, data))
	return buf.String()
}

var (
	ann  = &client.User{ID: "ann", Name: "Ann"}
	date = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
)

func TestPostItemShowsDeleteOnlyForAuthor(t *testing.T) {
	posts := []client.Post{
		{ID: "p1", User: "ann", Name: "Ann", Text: "mine", Date: date, Likes: []client.Like{{ID: "l", User: "bob"}}},
		{ID: "p2", User: "bob", Name: "Bob", Text: "theirs", Date: date},
	}
	html := render(t, "posts.html", PostsPage{Page: Page{Title: "Posts", User: ann}, Posts: posts})

	assert.Contains(t, html, `action="/posts/p1/delete"`)
	assert.NotContains(t, html, `action="/posts/p2/delete"`)
	assert.Contains(t, html, "Posted on 2024/03/09")
	assert.Contains(t, html, `<span class="like-count">1</span>`)
	assert.Contains(t, html, `<span class="comment-count">0</span>`)
}

func TestPostsPageLoading(t *testing.T) {
	html := render(t, "posts.html", PostsPage{Page: Page{Title: "Posts", User: ann}, Loading: true})
	assert.Contains(t, html, "Loading...")
}

func TestDiscussionShowsSpinnerUntilPostArrives(t *testing.T) {
	html := render(t, "discussion.html", DiscussionPage{Page: Page{Title: "Discussion", User: ann}})
	assert.Contains(t, html, `data-testid="spinner"`)
	assert.NotContains(t, html, "Back To Posts")
}

func TestDiscussionNoCommentsFallback(t *testing.T) {
	p := &client.Post{ID: "p1", User: "bob", Name: "Bob", Text: "hello <b>", Date: date}
	html := render(t, "discussion.html", DiscussionPage{Page: Page{Title: "Discussion", User: ann}, Post: p})

	assert.Contains(t, html, "No comments yet")
	assert.Contains(t, html, "hello &lt;b&gt;")
	assert.NotContains(t, html, `data-testid="spinner"`)
}

func TestDiscussionCommentDeleteForCommentAuthor(t *testing.T) {
	p := &client.Post{ID: "p1", User: "bob", Name: "Bob", Text: "hello", Date: date, Comments: []client.Comment{
		{ID: "c1", User: "ann", Name: "Ann", Text: "first", Date: date},
		{ID: "c2", User: "bob", Name: "Bob", Text: "second", Date: date},
	}}
	html := render(t, "discussion.html", DiscussionPage{Page: Page{Title: "Discussion", User: ann}, Post: p})

	assert.NotContains(t, html, "No comments yet")
	assert.Contains(t, html, `action="/posts/p1/comments/c1/delete"`)
	assert.NotContains(t, html, `action="/posts/p1/comments/c2/delete"`)
}

func TestLoginPage(t *testing.T) {
	html := render(t, "login.html", LoginPage{Page: Page{Title: "Login", Error: "Invalid credentials"}})
	assert.Contains(t, html, `action="/login"`)
	assert.Contains(t, html, "Invalid credentials")
}
