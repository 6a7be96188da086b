// Package views renders the HTML pages of the web frontend.
package views

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/oksasatya/devconnect/pkg/client"
)

//go:embed templates/*.tmpl
var fs embed.FS

// Page is the data shared by every page.
type Page struct {
	Title string
	User  *client.User
	Error string
}

type PostsPage struct {
	Page
	Posts   []client.Post
	Loading bool
}

type DiscussionPage struct {
	Page
	Post    *client.Post
	Loading bool
}

type LoginPage struct {
	Page
}

// itemData is what the post_item template sees.
type itemData struct {
	Viewer *client.User
	Post   client.Post
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.UTC().Format("2006/01/02") },
	"item": func(viewer *client.User, p client.Post) itemData { return itemData{Viewer: viewer, Post: p} },
}

// Templates parses all embedded page templates. Pages are named
// "posts.html", "discussion.html" and "login.html".
func Templates() (*template.Template, error) {
	return template.New("views").Funcs(funcs).ParseFS(fs, "templates/*.tmpl")
}

// Must is Templates for program start.
func Must() *template.Template {
	return template.Must(Templates())
}

// Render writes the named page to w.
func Render(t *template.Template, w io.Writer, name string, data any) error {
	return t.ExecuteTemplate(w, name, data)
}
