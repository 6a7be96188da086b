package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnect/internal/application"
	"github.com/oksasatya/devconnect/internal/infrastructure/memory"
	"github.com/oksasatya/devconnect/pkg/helpers"
)

func TestSeedUsersAndPostsIsRepeatable(t *testing.T) {
	ctx := context.Background()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	userRepo := memory.NewUserRepository()
	postRepo := memory.NewPostRepository()
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	users := application.NewService(userRepo, jwt, nil, "", nil, logger, nil, "", nil, nil)
	posts := application.NewPostService(postRepo, userRepo, logger, nil, "", nil, nil)

	opts := &seedOptions{password: "password123", users: 2}
	seeded, err := seedUsers(ctx, users, opts, logger)
	require.NoError(t, err)
	require.Len(t, seeded, 2)

	again, err := seedUsers(ctx, users, opts, logger)
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, again[0].ID)

	require.NoError(t, seedPosts(ctx, posts, seeded, 2, logger))
	list, err := postRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for _, p := range list {
		assert.Len(t, p.Likes, 1)
		assert.Len(t, p.Comments, 1)
		assert.NotEqual(t, p.UserID, p.Likes[0].UserID)
	}
}
