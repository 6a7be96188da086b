package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxRealIPKey holds the client address resolved by RealIP.
const CtxRealIPKey = "real_ip"

// RealIP resolves the client address from proxy headers, in order
// CF-Connecting-IP, the left-most X-Forwarded-For entry, X-Real-IP, and
// finally gin's ClientIP.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := firstValidIP(
			c.GetHeader("CF-Connecting-IP"),
			leftMost(c.GetHeader("X-Forwarded-For")),
			c.GetHeader("X-Real-IP"),
		)
		if ip == "" {
			ip = c.ClientIP()
		}
		c.Set(CtxRealIPKey, ip)
		c.Next()
	}
}

func leftMost(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return first
}

func firstValidIP(candidates ...string) string {
	for _, v := range candidates {
		if ip := net.ParseIP(strings.TrimSpace(v)); ip != nil {
			return ip.String()
		}
	}
	return ""
}
