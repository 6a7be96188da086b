package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnect/internal/web/store"
	"github.com/oksasatya/devconnect/pkg/client"
)

const (
	sessionCookie = "dc_sid"
	tokenCookie   = "dc_token"
)

type session struct {
	store *store.Store

	mu    sync.Mutex
	flash string
}

// Sessions maps browser sessions to their stores.
// TODO: evict sessions that have been idle longer than the access token TTL.
type Sessions struct {
	mu     sync.Mutex
	byID   map[string]*session
	api    *client.Client
	logger *logrus.Logger
	secure bool
}

func NewSessions(api *client.Client, logger *logrus.Logger, secureCookies bool) *Sessions {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sessions{byID: map[string]*session{}, api: api, logger: logger, secure: secureCookies}
}

// get returns the session of the request, creating one when needed. A new
// session picks up the token cookie so a restart does not log users out.
func (s *Sessions) get(c *gin.Context) *session {
	id, _ := c.Cookie(sessionCookie)

	s.mu.Lock()
	sess, ok := s.byID[id]
	if !ok {
		id = uuid.NewString()
		sess = &session{store: store.New(s.api, s.logger)}
		s.byID[id] = sess
	}
	s.mu.Unlock()

	if !ok {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, 0, "/", "", s.secure, true)
		if tok, err := c.Cookie(tokenCookie); err == nil && tok != "" {
			sess.store.SetToken(tok)
			if err := sess.store.LoadUser(c.Request.Context()); err != nil {
				s.logger.WithError(err).Debug("stored token rejected")
			}
		}
	}
	return sess
}

func (s *Sessions) rememberToken(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, token, 0, "/", "", s.secure, true)
}

func (s *Sessions) forget(c *gin.Context) {
	id, _ := c.Cookie(sessionCookie)
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
	c.SetCookie(sessionCookie, "", -1, "/", "", s.secure, true)
	c.SetCookie(tokenCookie, "", -1, "/", "", s.secure, true)
}

func (sess *session) setFlash(msg string) {
	sess.mu.Lock()
	sess.flash = msg
	sess.mu.Unlock()
}

func (sess *session) popFlash() string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	f := sess.flash
	sess.flash = ""
	return f
}

// flashFrom turns an action error into a user-facing message.
func flashFrom(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Details) > 0 {
			for field, msg := range apiErr.Details {
				return field + " " + msg
			}
		}
		return apiErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The server took too long to answer"
	}
	return "Something went wrong"
}
