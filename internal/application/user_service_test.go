package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnect/config"
	"github.com/oksasatya/devconnect/pkg/helpers"
	"github.com/oksasatya/devconnect/pkg/mailer"
)

func newTestUserService() (*Service, *fakeUserRepo, *fakePublisher) {
	users := newFakeUserRepo()
	pub := &fakePublisher{}
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	cfg := &config.Config{AppName: "test", MailSendEnabled: true}
	return NewService(users, jwt, nil, "", nil, nil, nil, "", pub, cfg), users, pub
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users, pub := newTestUserService()
	ctx := context.Background()

	res, pair, err := svc.Register(ctx, "Ann", " Ann@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.Email)
	assert.Contains(t, res.Avatar, "gravatar.com")
	assert.NotEmpty(t, pair.AccessToken)

	stored := users.users[res.UserID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "password123", stored.Password)

	require.Len(t, pub.jobs, 1)
	assert.Equal(t, "universal", pub.jobs[0].(mailer.EmailJob).Template)

	_, _, err = svc.Register(ctx, "Ann again", "ann@example.com", "password123")
	assert.ErrorIs(t, err, ErrUserExists)

	login, _, err := svc.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, res.UserID, login.UserID)

	_, _, err = svc.Login(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()
	res, pair, err := svc.Register(ctx, "Ann", "ann@example.com", "password123")
	require.NoError(t, err)

	next, uid, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, uid)
	assert.NotEmpty(t, next.AccessToken)

	_, _, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()
	res, _, err := svc.Register(ctx, "Ann", "ann@example.com", "password123")
	require.NoError(t, err)

	u, err := svc.UpdateProfile(ctx, res.UserID, UpdateProfileInput{Name: "Annie"})
	require.NoError(t, err)
	assert.Equal(t, "Annie", u.Name)
	assert.Equal(t, res.Avatar, u.AvatarURL)

	_, err = svc.UpdateProfile(ctx, "missing", UpdateProfileInput{Name: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPasswordResetNeedsRedis(t *testing.T) {
	svc, _, _ := newTestUserService()
	_, err := svc.StartPasswordReset(context.Background(), ResetRequest{Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrResetUnavailable)
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "tok", "password123"), ErrResetUnavailable)
}

// sessionHook answers session reads with a fixed sid and fails every
// pipeline, so no server is needed.
type sessionHook struct {
	sid     string
	pipeErr error
}

func (h *sessionHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *sessionHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if c, ok := cmd.(*redis.MapStringStringCmd); ok {
			c.SetVal(map[string]string{"sid": h.sid})
			return nil
		}
		return next(ctx, cmd)
	}
}

func (h *sessionHook) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		for _, c := range cmds {
			c.SetErr(h.pipeErr)
		}
		return h.pipeErr
	}
}

func TestRefreshFailsWhenSessionWriteFails(t *testing.T) {
	hook := &sessionHook{pipeErr: errors.New("connection reset")}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(hook)
	t.Cleanup(func() { _ = rdb.Close() })

	users := newFakeUserRepo()
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	svc := NewService(users, jwt, nil, "", rdb, nil, nil, "", nil, &config.Config{AppName: "test"})
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "Ann", "ann@example.com", "password123")
	require.NoError(t, err)
	claims, err := jwt.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	hook.sid = claims.SessionID

	next, _, err := svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionStore)
	assert.Empty(t, next.AccessToken)
}
