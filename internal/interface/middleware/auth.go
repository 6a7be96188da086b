package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/devconnect/pkg/helpers"
	"github.com/oksasatya/devconnect/pkg/response"
)

// Context keys set by Auth.
const (
	CtxUserIDKey    = "userID"
	CtxUserNameKey  = "userName"
	CtxUserEmailKey = "userEmail"
)

// SessionKey is the Redis hash holding the active session of a user.
func SessionKey(userID string) string { return "user:session:" + userID }

// tokenFromRequest looks at the Authorization bearer header, then the
// x-auth-token header, then the access_token cookie.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if tok := strings.TrimSpace(c.GetHeader("x-auth-token")); tok != "" {
		return tok
	}
	if tok, err := c.Cookie(helpers.AccessCookieName); err == nil {
		return tok
	}
	return ""
}

// Auth validates the access token and, when rdb is set, ensures the session
// the token was issued for is still active in Redis.
// It sets userID, userName, and userEmail in the Gin context on success.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "No token, authorization denied", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Token is not valid", nil)
			return
		}

		if rdb == nil {
			c.Set(CtxUserIDKey, claims.UserID)
			c.Next()
			return
		}

		data, err := rdb.HGetAll(c.Request.Context(), SessionKey(claims.UserID)).Result()
		if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			response.Abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}

		c.Set(CtxUserIDKey, data["user_id"])
		c.Set(CtxUserNameKey, data["name"])
		c.Set(CtxUserEmailKey, data["email"])
		c.Next()
	}
}
