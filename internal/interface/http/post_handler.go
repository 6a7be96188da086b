package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/devconnect/internal/application"
	"github.com/oksasatya/devconnect/internal/domain/entity"
	"github.com/oksasatya/devconnect/pkg/response"
	"github.com/oksasatya/devconnect/pkg/validation"
)

type PostHandler struct {
	Svc    *app.PostService
	Logger *logrus.Logger
}

func NewPostHandler(svc *app.PostService, logger *logrus.Logger) *PostHandler {
	return &PostHandler{Svc: svc, Logger: logger}
}

type textRequest struct {
	Text string `json:"text" binding:"text"`
}

type likeView struct {
	ID   string `json:"_id"`
	User string `json:"user"`
}

type commentView struct {
	ID     string    `json:"_id"`
	User   string    `json:"user"`
	Text   string    `json:"text"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
	Date   time.Time `json:"date"`
}

type postView struct {
	ID       string        `json:"_id"`
	User     string        `json:"user"`
	Text     string        `json:"text"`
	Name     string        `json:"name"`
	Avatar   string        `json:"avatar"`
	Likes    []likeView    `json:"likes"`
	Comments []commentView `json:"comments"`
	Date     time.Time     `json:"date"`
}

func toLikeViews(likes []entity.Like) []likeView {
	out := make([]likeView, 0, len(likes))
	for _, l := range likes {
		out = append(out, likeView{ID: l.ID, User: l.UserID})
	}
	return out
}

func toCommentViews(comments []entity.Comment) []commentView {
	out := make([]commentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentView{ID: c.ID, User: c.UserID, Text: c.Text, Name: c.Name, Avatar: c.Avatar, Date: c.Date})
	}
	return out
}

func toPostView(p *entity.Post) postView {
	return postView{
		ID:       p.ID,
		User:     p.UserID,
		Text:     p.Text,
		Name:     p.Name,
		Avatar:   p.Avatar,
		Likes:    toLikeViews(p.Likes),
		Comments: toCommentViews(p.Comments),
		Date:     p.Date,
	}
}

func toPostViews(posts []*entity.Post) []postView {
	out := make([]postView, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostView(p))
	}
	return out
}

// fail maps service errors onto status codes. Unexpected errors are logged
// and reported as a generic server error.
func (h *PostHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyText):
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"text": "is required"})
	case errors.Is(err, app.ErrPostNotFound):
		response.Error[any](c, http.StatusNotFound, "Post not found", nil)
	case errors.Is(err, app.ErrCommentNotFound):
		response.Error[any](c, http.StatusNotFound, "Comment does not exist", nil)
	case errors.Is(err, app.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, app.ErrNotAuthorized):
		response.Error[any](c, http.StatusUnauthorized, "User not authorized", nil)
	case errors.Is(err, app.ErrAlreadyLiked):
		response.Error[any](c, http.StatusBadRequest, "Post already liked", nil)
	case errors.Is(err, app.ErrNotLiked):
		response.Error[any](c, http.StatusBadRequest, "Post has not yet been liked", nil)
	case errors.Is(err, app.ErrConcurrentUpdate):
		response.Error[any](c, http.StatusConflict, "post was modified concurrently, try again", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithFields(logrus.Fields{
				"path":       c.FullPath(),
				"request_id": c.GetString("request_id"),
			}).Error("post request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
	}
}

// Create POST /api/posts {text}
func (h *PostHandler) Create(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.CreatePost(c.Request.Context(), c.GetString("userID"), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPostView(p), "post created", nil)
}

// List GET /api/posts
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.Svc.ListPosts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPostViews(posts), "posts", map[string]any{"count": len(posts)})
}

// Search GET /api/posts/search?q=&size=
func (h *PostHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	posts, err := h.Svc.SearchPosts(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPostViews(posts), "search results", map[string]any{"count": len(posts)})
}

// Get GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	p, err := h.Svc.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPostView(p), "post", nil)
}

// Delete DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeletePost(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"msg": "Post removed"}, "Post removed", nil)
}

// Like PUT /api/posts/like/:id
func (h *PostHandler) Like(c *gin.Context) {
	likes, err := h.Svc.LikePost(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toLikeViews(likes), "post liked", nil)
}

// Unlike PUT /api/posts/unlike/:id
func (h *PostHandler) Unlike(c *gin.Context) {
	likes, err := h.Svc.UnlikePost(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toLikeViews(likes), "post unliked", nil)
}

// AddComment POST /api/posts/comment/:id {text}
func (h *PostHandler) AddComment(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	comments, err := h.Svc.AddComment(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toCommentViews(comments), "comment added", nil)
}

// DeleteComment DELETE /api/posts/comment/:id/:comment_id
func (h *PostHandler) DeleteComment(c *gin.Context) {
	comments, err := h.Svc.DeleteComment(c.Request.Context(), c.GetString("userID"), c.Param("id"), c.Param("comment_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toCommentViews(comments), "comment removed", nil)
}
