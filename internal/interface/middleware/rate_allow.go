package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP lets loopback and private-network clients (10/8, 172.16/12,
// 192.168/16, fc00::/7) skip a limit.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		ip := net.ParseIP(ipFromCtx(c))
		return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
	}
}

// AllowIf returns allow when enabled and nil otherwise.
func AllowIf(enabled bool, allow AllowFunc) AllowFunc {
	if !enabled {
		return nil
	}
	return allow
}
