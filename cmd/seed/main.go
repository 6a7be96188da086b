package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/devconnect/config"
	"github.com/oksasatya/devconnect/internal/application"
	"github.com/oksasatya/devconnect/internal/domain/entity"
	mongoinfra "github.com/oksasatya/devconnect/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/devconnect/internal/infrastructure/postgres"
	"github.com/oksasatya/devconnect/pkg/helpers"
)

type seedOptions struct {
	password string
	users    int
	posts    int
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	opts := &seedOptions{}
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Seed demo users and posts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.password, "password", "password123", "password for seeded users")
	root.PersistentFlags().IntVar(&opts.users, "users", 3, "number of demo users")

	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Create demo users in Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer env.close()
			_, err = seedUsers(cmd.Context(), env.users, opts, logger)
			return err
		},
	}

	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "Create demo users, then posts with likes and comments in MongoDB",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			defer env.close()
			users, err := seedUsers(cmd.Context(), env.users, opts, logger)
			if err != nil {
				return err
			}
			return seedPosts(cmd.Context(), env.posts, users, opts.posts, logger)
		},
	}
	postsCmd.Flags().IntVar(&opts.posts, "posts", 5, "number of posts per user")

	root.AddCommand(usersCmd, postsCmd)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		logger.WithError(err).Error("seed failed")
		os.Exit(1)
	}
}

type seedEnv struct {
	users *application.Service
	posts *application.PostService
	close func()
}

func openEnv(ctx context.Context, cfg *config.Config, logger *logrus.Logger, withMongo bool) (*seedEnv, error) {
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
		AppName:         cfg.AppName + "-seed",
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	closers := []func(){pool.Close}
	userRepo := pginfra.NewUserRepository(pool)
	jwt := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	env := &seedEnv{
		users: application.NewService(userRepo, jwt, nil, "", nil, logger, nil, "", nil, cfg),
	}

	if withMongo {
		client, err := mongoinfra.Connect(ctx, cfg.MongoURI, cfg.MongoTimeout)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		col := client.Database(cfg.MongoDB).Collection(cfg.MongoPostsCollection)
		if err := mongoinfra.EnsurePostIndexes(ctx, col); err != nil {
			logger.WithError(err).Warn("ensure post indexes failed")
		}
		env.posts = application.NewPostService(mongoinfra.NewPostRepository(col), userRepo, logger, nil, "", nil, cfg)
	}

	env.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return env, nil
}

// seedUsers registers demo users, reusing the ones that already exist.
func seedUsers(ctx context.Context, svc *application.Service, opts *seedOptions, logger *logrus.Logger) ([]*entity.User, error) {
	out := make([]*entity.User, 0, opts.users)
	for i := 1; i <= opts.users; i++ {
		name := fmt.Sprintf("Demo User %d", i)
		email := fmt.Sprintf("demo%d@devconnect.local", i)

		_, _, err := svc.Register(ctx, name, email, opts.password)
		if err != nil && !errors.Is(err, application.ErrUserExists) {
			return nil, fmt.Errorf("seed user %s: %w", email, err)
		}
		u, err := svc.Authenticate(ctx, email, opts.password)
		if err != nil {
			return nil, fmt.Errorf("seeded user %s cannot log in with the given password: %w", email, err)
		}
		logger.WithFields(logrus.Fields{"id": u.ID, "email": email}).Info("user ready")
		out = append(out, u)
	}
	return out, nil
}

// seedPosts creates posts for every user; each post is liked and commented on
// by the next user in the list.
func seedPosts(ctx context.Context, svc *application.PostService, users []*entity.User, perUser int, logger *logrus.Logger) error {
	if len(users) == 0 {
		return nil
	}
	for i, u := range users {
		next := users[(i+1)%len(users)]
		for n := 1; n <= perUser; n++ {
			p, err := svc.CreatePost(ctx, u.ID, fmt.Sprintf("Post %d from %s", n, u.Name))
			if err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			if next.ID != u.ID {
				if _, err := svc.LikePost(ctx, next.ID, p.ID); err != nil {
					return fmt.Errorf("like post: %w", err)
				}
			}
			if _, err := svc.AddComment(ctx, next.ID, p.ID, "Nice one, "+u.Name); err != nil {
				return fmt.Errorf("comment post: %w", err)
			}
		}
		logger.WithFields(logrus.Fields{"user": u.Email, "posts": perUser}).Info("posts seeded")
	}
	return nil
}
