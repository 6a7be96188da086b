package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnect/config"
	"github.com/oksasatya/devconnect/internal/container"
	"github.com/oksasatya/devconnect/internal/infrastructure/memory"
	"github.com/oksasatya/devconnect/pkg/helpers"
	"github.com/oksasatya/devconnect/pkg/validation"
)

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()
	container.SetConfig(&config.Config{AppName: "test", DebugMetricsEnabled: true})
	container.SetJWT(helpers.NewJWTManager("a", "r", time.Minute, time.Hour))

	r := gin.New()
	reg := NewRegistry(r)
	InitModulesWith(reg, Stores{Users: memory.NewUserRepository(), Posts: memory.NewPostRepository()})
	reg.RegisterAll()
	return r
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestRegisteredRoutesServeThePostsFlow(t *testing.T) {
	r := newEngine(t)

	code, body := call(t, r, http.MethodPost, "/api/users", "", gin.H{"name": "Ann", "email": "ann@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, code, body)
	token := body["data"].(map[string]any)["token"].(string)

	code, body = call(t, r, http.MethodPost, "/api/posts", token, gin.H{"text": "hello"})
	require.Equal(t, http.StatusOK, code, body)
	post := body["data"].(map[string]any)
	id := post["_id"].(string)

	code, _ = call(t, r, http.MethodPut, "/api/posts/like/"+id, token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, r, http.MethodPut, "/api/posts/like/"+id, token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = call(t, r, http.MethodGet, "/api/posts/search?q=hello", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["data"])

	code, body = call(t, r, http.MethodGet, "/api/posts/"+id, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"].(map[string]any)["likes"], 1)
}

func TestHealthAndVars(t *testing.T) {
	r := newEngine(t)
	code, body := call(t, r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "posts_created")
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	r := newEngine(t)
	code, body := call(t, r, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", body["message"])
	assert.Equal(t, false, body["success"])
}
