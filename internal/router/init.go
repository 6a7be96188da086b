package router

import (
	"github.com/oksasatya/devconnect/internal/application"
	"github.com/oksasatya/devconnect/internal/container"
	"github.com/oksasatya/devconnect/internal/domain/repository"
	mongoinfra "github.com/oksasatya/devconnect/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/devconnect/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/devconnect/internal/interface/http"
	"github.com/oksasatya/devconnect/internal/interface/middleware"
	"github.com/oksasatya/devconnect/internal/router/modules"
)

// Stores are the repositories the modules are built on.
type Stores struct {
	Users repository.UserRepository
	Posts repository.PostRepository
}

// publisher returns nil (not a typed nil) when RabbitMQ is not connected.
func publisher() application.JobPublisher {
	if p := container.GetRabbitPub(); p != nil {
		return p
	}
	return nil
}

// InitModules initializes all application modules from the container
// singletons and registers them with the router registry.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	InitModulesWith(r, Stores{
		Users: pginfra.NewUserRepository(container.GetPGPool()),
		Posts: mongoinfra.NewPostRepository(container.GetMongo().Collection(cfg.MongoPostsCollection)),
	})
}

// InitModulesWith wires the modules on top of the given stores. Redis, GCS,
// RabbitMQ and Elasticsearch are taken from the container and may be nil.
func InitModulesWith(r *Registry, s Stores) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()
	pub := publisher()
	if logger != nil {
		r.Logger = logger
	}

	bypass := middleware.AllowIf(cfg.RateLimitBypassPrivate, middleware.AllowPrivateIP())
	r.Use(middleware.RateLimit(container.GetRedis(), cfg.APIRateLimit, cfg.APIRateWindow, middleware.KeyByIP(), bypass))

	userSvc := application.NewService(
		s.Users,
		jwt,
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRedis(),
		logger,
		container.GetES(),
		cfg.ESUsersIndex,
		pub,
		cfg,
	)
	postSvc := application.NewPostService(
		s.Posts,
		s.Users,
		logger,
		container.GetES(),
		cfg.ESPostsIndex,
		pub,
		cfg,
	)

	r.Add(modules.NewUserModule(handlers.NewUserHandler(userSvc, logger, cfg.CookieDomain, cfg.CookieSecure), jwt))
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(userSvc, logger)))
	r.Add(modules.NewPostModule(handlers.NewPostHandler(postSvc, logger), jwt))
	r.Add(modules.NewDebugModule(cfg.DebugMetricsEnabled))
}
