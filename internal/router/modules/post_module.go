package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/devconnect/internal/container"
	handlers "github.com/oksasatya/devconnect/internal/interface/http"
	"github.com/oksasatya/devconnect/internal/interface/middleware"
	"github.com/oksasatya/devconnect/pkg/helpers"
)

// PostModule registers the /api/posts routes. Every route requires auth.
type PostModule struct {
	Handler *handlers.PostHandler
	JWT     *helpers.JWTManager
}

func NewPostModule(h *handlers.PostHandler, jwt *helpers.JWTManager) *PostModule {
	return &PostModule{Handler: h, JWT: jwt}
}

func (m *PostModule) Name() string { return "posts" }

func (m *PostModule) Register(rg *gin.RouterGroup) {
	posts := rg.Group("/posts")
	posts.Use(middleware.Auth(container.GetRedis(), m.JWT))
	posts.Use(middleware.RateLimit(container.GetRedis(), 240, time.Minute, middleware.KeyByUserID(), nil))
	// writes get their own, tighter budget per user and route
	writeLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserIDAndPath(), nil)
	{
		posts.POST("", writeLimiter, m.Handler.Create)
		posts.GET("", m.Handler.List)
		posts.GET("/search", m.Handler.Search)
		posts.GET("/:id", m.Handler.Get)
		posts.DELETE("/:id", m.Handler.Delete)
		posts.PUT("/like/:id", m.Handler.Like)
		posts.PUT("/unlike/:id", m.Handler.Unlike)
		posts.POST("/comment/:id", writeLimiter, m.Handler.AddComment)
		posts.DELETE("/comment/:id/:comment_id", m.Handler.DeleteComment)
	}
}
