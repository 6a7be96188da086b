package modules

import (
	"context"
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/oksasatya/devconnect/internal/container"
	"github.com/oksasatya/devconnect/internal/interface/middleware"
	"github.com/oksasatya/devconnect/pkg/helpers"
	"github.com/oksasatya/devconnect/pkg/response"
)

// DebugModule serves the dependency health check and, when enabled, the
// expvar counters.
type DebugModule struct {
	Metrics bool
}

func NewDebugModule(metrics bool) *DebugModule { return &DebugModule{Metrics: metrics} }

func (m *DebugModule) Name() string { return "debug" }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// monitoring from inside the network is not limited
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/health", rl, health)
	if m.Metrics {
		rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	}
}

// health pings every configured backend. Unconfigured ones are skipped.
func health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	ok := true
	record := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			ok = false
			return
		}
		checks[name] = "ok"
	}
	if pool := container.GetPGPool(); pool != nil {
		record("postgres", pool.Ping(ctx))
	}
	if db := container.GetMongo(); db != nil {
		record("mongo", db.Client().Ping(ctx, readpref.Primary()))
	}
	if rdb := container.GetRedis(); rdb != nil {
		record("redis", helpers.PingRedis(ctx, rdb))
	}
	if pub := container.GetRabbitPub(); pub != nil {
		record("rabbitmq", pub.Healthy())
	}

	if !ok {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", checks)
		return
	}
	response.Success(c, http.StatusOK, checks, "healthy", nil)
}
