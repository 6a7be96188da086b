package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rr.Body.String()
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "6f1c0e3a-1d2b-4c5d-8e9f-0a1b2c3d4e5f")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "6f1c0e3a-1d2b-4c5d-8e9f-0a1b2c3d4e5f", rr.Body.String())
}

func TestRealIPPrefersCloudflareThenForwardedFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIPKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.9")
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "203.0.113.9", rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "198.51.100.1", rr.Body.String())
}

func TestRateLimitWithoutRedisIsNoop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimit(nil, 1, time.Minute, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	}
}

func TestKeyByUserIDFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(CtxRealIPKey, "192.0.2.7")

	assert.Equal(t, "rl:user:anon:ip:192.0.2.7", KeyByUserID()(c))
	c.Set(CtxUserIDKey, "u1")
	assert.Equal(t, "rl:user:u1", KeyByUserID()(c))
}

func TestKeyByUserIDAndPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var key string
	r.POST("/posts/comment/:id", func(c *gin.Context) {
		c.Set(CtxUserIDKey, "u1")
		key = KeyByUserIDAndPath()(c)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/posts/comment/abc", nil))
	assert.Equal(t, "rl:user:u1:path:POST:/posts/comment/:id", key)
}

func TestAllowPrivateIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	c.Set(CtxRealIPKey, "10.1.2.3")
	assert.True(t, AllowPrivateIP()(c))
	c.Set(CtxRealIPKey, "8.8.8.8")
	assert.False(t, AllowPrivateIP()(c))
}

func TestAllowIf(t *testing.T) {
	assert.Nil(t, AllowIf(false, AllowPrivateIP()))
	assert.NotNil(t, AllowIf(true, AllowPrivateIP()))
}

func TestRealIPFallsBackToRealIPHeaderAndClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIPKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	req.Header.Set("X-Real-IP", "198.51.100.20")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "198.51.100.20", rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "192.0.2.1", rr.Body.String())
}
