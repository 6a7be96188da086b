// Package handlers serves the HTML frontend. Every request acts on the
// session's store and renders from its state.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnect/internal/web/store"
	"github.com/oksasatya/devconnect/internal/web/views"
)

type Handler struct {
	Sessions *Sessions
	Logger   *logrus.Logger
}

func New(sessions *Sessions, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{Sessions: sessions, Logger: logger}
}

// Register mounts the pages on r. r must have the views templates set.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/posts") })
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.POST("/register", h.SignUp)
	r.POST("/logout", h.Logout)

	r.GET("/posts", h.requireUser, h.Posts)
	r.POST("/posts", h.requireUser, h.CreatePost)
	r.GET("/posts/:id", h.requireUser, h.Discussion)
	r.POST("/posts/:id/like", h.requireUser, h.Like)
	r.POST("/posts/:id/unlike", h.requireUser, h.Unlike)
	r.POST("/posts/:id/delete", h.requireUser, h.DeletePost)
	r.POST("/posts/:id/comments", h.requireUser, h.AddComment)
	r.POST("/posts/:id/comments/:comment_id/delete", h.requireUser, h.DeleteComment)
}

func (h *Handler) requireUser(c *gin.Context) {
	sess := h.Sessions.get(c)
	if !sess.store.State().Auth.IsAuthenticated {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Set("session", sess)
	c.Next()
}

func current(c *gin.Context) *session {
	return c.MustGet("session").(*session)
}

// back redirects to the page the form was posted from, or fallback.
func back(c *gin.Context, fallback string) {
	if ref := c.Request.Referer(); ref != "" {
		if i := strings.Index(ref, "/posts"); i >= 0 {
			c.Redirect(http.StatusSeeOther, ref[i:])
			return
		}
	}
	c.Redirect(http.StatusSeeOther, fallback)
}

// act runs a store action and keeps its error for the next page.
func (h *Handler) act(c *gin.Context, fn func(sess *session) error) {
	sess := current(c)
	if err := fn(sess); err != nil {
		sess.setFlash(flashFrom(err))
		h.Logger.WithError(err).WithField("path", c.Request.URL.Path).Debug("action failed")
	}
}

func (h *Handler) LoginPage(c *gin.Context) {
	sess := h.Sessions.get(c)
	if sess.store.State().Auth.IsAuthenticated {
		c.Redirect(http.StatusFound, "/posts")
		return
	}
	c.HTML(http.StatusOK, "login.html", views.LoginPage{Page: views.Page{Title: "Login", Error: sess.popFlash()}})
}

func (h *Handler) Login(c *gin.Context) {
	sess := h.Sessions.get(c)
	if err := sess.store.Login(c.Request.Context(), c.PostForm("email"), c.PostForm("password")); err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", views.LoginPage{Page: views.Page{Title: "Login", Error: flashFrom(err)}})
		return
	}
	h.Sessions.rememberToken(c, sess.store.State().Auth.Token)
	c.Redirect(http.StatusSeeOther, "/posts")
}

// SignUp creates an account and signs the browser in.
func (h *Handler) SignUp(c *gin.Context) {
	sess := h.Sessions.get(c)
	if err := sess.store.Register(c.Request.Context(), c.PostForm("name"), c.PostForm("email"), c.PostForm("password")); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", views.LoginPage{Page: views.Page{Title: "Login", Error: flashFrom(err)}})
		return
	}
	h.Sessions.rememberToken(c, sess.store.State().Auth.Token)
	c.Redirect(http.StatusSeeOther, "/posts")
}

func (h *Handler) Logout(c *gin.Context) {
	sess := h.Sessions.get(c)
	sess.store.Logout(c.Request.Context())
	h.Sessions.forget(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) Posts(c *gin.Context) {
	sess := current(c)
	flash := sess.popFlash()
	if err := sess.store.GetPosts(c.Request.Context()); err != nil && flash == "" {
		flash = flashFrom(err)
	}
	st := sess.store.State()
	if !st.Auth.IsAuthenticated {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.HTML(http.StatusOK, "posts.html", views.PostsPage{
		Page:    views.Page{Title: "Posts", User: st.Auth.User, Error: flash},
		Posts:   st.Posts.Posts,
		Loading: st.Posts.Status == store.StatusLoading,
	})
}

func (h *Handler) Discussion(c *gin.Context) {
	sess := current(c)
	flash := sess.popFlash()
	err := sess.store.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil && flash == "" {
		flash = flashFrom(err)
	}
	st := sess.store.State()
	if !st.Auth.IsAuthenticated {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	status := http.StatusOK
	if st.Posts.Post == nil && err != nil {
		status = http.StatusNotFound
	}
	c.HTML(status, "discussion.html", views.DiscussionPage{
		Page:    views.Page{Title: "Discussion", User: st.Auth.User, Error: flash},
		Post:    st.Posts.Post,
		Loading: st.Posts.Status == store.StatusLoading,
	})
}

func (h *Handler) CreatePost(c *gin.Context) {
	h.act(c, func(s *session) error { return s.store.AddPost(c.Request.Context(), c.PostForm("text")) })
	c.Redirect(http.StatusSeeOther, "/posts")
}

func (h *Handler) Like(c *gin.Context) {
	h.act(c, func(s *session) error { return s.store.AddLike(c.Request.Context(), c.Param("id")) })
	back(c, "/posts")
}

func (h *Handler) Unlike(c *gin.Context) {
	h.act(c, func(s *session) error { return s.store.RemoveLike(c.Request.Context(), c.Param("id")) })
	back(c, "/posts")
}

func (h *Handler) DeletePost(c *gin.Context) {
	h.act(c, func(s *session) error { return s.store.DeletePost(c.Request.Context(), c.Param("id")) })
	c.Redirect(http.StatusSeeOther, "/posts")
}

func (h *Handler) AddComment(c *gin.Context) {
	id := c.Param("id")
	h.act(c, func(s *session) error { return s.store.AddComment(c.Request.Context(), id, c.PostForm("text")) })
	c.Redirect(http.StatusSeeOther, "/posts/"+id)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	id := c.Param("id")
	h.act(c, func(s *session) error { return s.store.DeleteComment(c.Request.Context(), id, c.Param("comment_id")) })
	c.Redirect(http.StatusSeeOther, "/posts/"+id)
}
