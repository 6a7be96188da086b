package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnect/pkg/helpers"
)

func newAuthEngine(jwt *helpers.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Auth(nil, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})
	return r
}

func TestAuthAcceptsBearerHeaderTokenAndCookie(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	tok, _, err := jwt.GenerateAccessToken("user-42", "sid")
	require.NoError(t, err)
	r := newAuthEngine(jwt)

	cases := map[string]func(req *http.Request){
		"bearer": func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) },
		"header": func(req *http.Request) { req.Header.Set("x-auth-token", tok) },
		"cookie": func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "access_token", Value: tok}) },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			setup(req)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "user-42", rr.Body.String())
		})
	}
}

func TestAuthRejectsMissingAndInvalidToken(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	r := newAuthEngine(jwt)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "No token")

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Token is not valid")
}

func TestAuthRejectsTokenSignedWithOtherSecret(t *testing.T) {
	other := helpers.NewJWTManager("other", "r", time.Minute, time.Hour)
	tok, _, err := other.GenerateAccessToken("user-42", "sid")
	require.NoError(t, err)

	r := newAuthEngine(helpers.NewJWTManager("a", "r", time.Minute, time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
