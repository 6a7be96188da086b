package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnect/config"
	"github.com/oksasatya/devconnect/internal/domain/entity"
	repo "github.com/oksasatya/devconnect/internal/domain/repository"
	"github.com/oksasatya/devconnect/pkg/helpers"
	"github.com/oksasatya/devconnect/pkg/mailer"
	mailtpl "github.com/oksasatya/devconnect/pkg/mailer/templates"
)

const (
	sessionTTL = 24 * time.Hour
	resetTTL   = 30 * time.Minute
)

type Service struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	GCS          *storage.Client
	GCSBucket    string
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Pub          JobPublisher
	Cfg          *config.Config
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func resetKey(token string) string {
	return "pwd:reset:token:" + token
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func NewService(repo repo.UserRepository, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, pub JobPublisher, cfg *config.Config) *Service {
	return &Service{
		Repo:         repo,
		JWT:          jwt,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		Redis:        rdb,
		Logger:       orDiscard(logger),
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Pub:          pub,
		Cfg:          cfg,
	}
}

type LoginResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func loginResponse(u *entity.User) *LoginResponse {
	return &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.AvatarURL}
}

// Register creates a user with a bcrypt password and a Gravatar avatar, then
// opens a session for it.
func (s *Service) Register(ctx context.Context, name, email, password string) (*LoginResponse, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, TokenPair{}, ErrUserExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entity.User{
		Email:     email,
		Password:  hash,
		Name:      strings.TrimSpace(name),
		AvatarURL: helpers.GravatarURL(email),
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, TokenPair{}, ErrUserExists
		}
		return nil, TokenPair{}, fmt.Errorf("create user: %w", err)
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	_ = s.indexUser(ctx, u)
	s.enqueue(ctx, mailer.EmailJob{To: u.Email, Template: mailtpl.Universal, Data: s.welcomeData(u)})
	return loginResponse(u), pair, nil
}

func (s *Service) welcomeData(u *entity.User) map[string]any {
	if s.Cfg == nil {
		return nil
	}
	return mailtpl.NewWelcomeData(s.Cfg, u.Name, u.Email, mailtpl.WithTime(time.Now()))
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"avatar_url": u.AvatarURL,
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return loginResponse(u), pair, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	// the refresh token must belong to the current session
	if s.Redis != nil {
		key := sessionKey(u.ID)
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	// Rotate session id and tokens
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("user_id", u.ID).Error("session rotation failed")
			return TokenPair{}, "", fmt.Errorf("%w: %v", ErrSessionStore, rErr)
		}
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

// Logout drops the Redis session so outstanding tokens stop working.
func (s *Service) Logout(ctx context.Context, userID string) {
	if s.Redis == nil || userID == "" {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, sessionKey(userID)); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name      string
	AvatarURL string
}

// UpdateProfile updates the name/avatar and mirrors them into the session hash,
// preserving its TTL.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if in.AvatarURL != "" {
		u.AvatarURL = in.AvatarURL
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.touchSession(ctx, u)
	_ = s.indexUser(ctx, u)
	return u, nil
}

func (s *Service) touchSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := sessionKey(u.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"updated_at": nowRFC3339(),
	})
	if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, pErr := pipe.Exec(ctx); pErr != nil {
		s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
	}
}

// UploadAvatar stores the image in GCS and points the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return "", ErrUserNotFound
	}
	url, err := s.uploadImageToGCS(ctx, userID, r, filename, contentType)
	if err != nil {
		return "", err
	}
	u.AvatarURL = url
	if err := s.Repo.Update(ctx, u); err != nil {
		return "", err
	}
	s.touchSession(ctx, u)
	_ = s.indexUser(ctx, u)
	return url, nil
}

func (s *Service) uploadImageToGCS(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	objectPath := helpers.ObjectPath("avatars/"+userID, uuid.NewString(), filename)
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
}

// resetTicket is stored under the reset token until it is used or expires.
// The email guards against a token outliving an email change.
type resetTicket struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	IP       string    `json:"ip,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

// ResetRequest carries request metadata shown in the reset email.
type ResetRequest struct {
	Email     string
	IP        string
	UserAgent string
}

// StartPasswordReset stores a one-time token and enqueues the reset email.
// Unknown emails return an empty link and no error to avoid enumeration.
func (s *Service) StartPasswordReset(ctx context.Context, req ResetRequest) (string, error) {
	if s.Redis == nil || s.Cfg == nil {
		return "", ErrResetUnavailable
	}
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Logger.WithField("email", req.Email).Info("password reset for unknown email")
			return "", nil
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	tok, err := genToken(32)
	if err != nil {
		return "", err
	}
	ticket := resetTicket{UserID: u.ID, Email: u.Email, IP: req.IP, IssuedAt: time.Now().UTC()}
	if err := helpers.RedisSetJSON(ctx, s.Redis, resetKey(tok), ticket, resetTTL); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	link := s.Cfg.ResetPasswordURL + "?token=" + tok
	data := mailtpl.NewForgotPasswordData(
		s.Cfg,
		u.Name,
		u.Email,
		u.Email,
		mailtpl.WithTime(time.Now()),
		mailtpl.WithResetURL(link),
		mailtpl.WithExpiresIn(resetTTL),
		mailtpl.WithIP(req.IP),
		mailtpl.WithUserAgent(req.UserAgent),
	)
	s.enqueue(ctx, mailer.EmailJob{To: u.Email, Template: mailtpl.Universal, Data: data})
	return link, nil
}

// ResetPassword consumes the token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.Redis == nil {
		return ErrResetUnavailable
	}
	var ticket resetTicket
	ok, err := helpers.RedisGetJSON(ctx, s.Redis, resetKey(token), &ticket)
	if err != nil {
		return fmt.Errorf("load reset token: %w", err)
	}
	if !ok || ticket.UserID == "" {
		return ErrInvalidResetToken
	}
	u, err := s.Repo.GetByID(ctx, ticket.UserID)
	if err != nil || !strings.EqualFold(u.Email, ticket.Email) {
		return ErrInvalidResetToken
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	if err := s.Repo.Update(ctx, u); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := helpers.RedisDel(ctx, s.Redis, resetKey(token)); err != nil {
		s.Logger.WithError(err).Warn("reset token not deleted")
	}
	// existing sessions must log in again
	s.Logout(ctx, u.ID)
	return nil
}

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Service) enqueue(ctx context.Context, job mailer.EmailJob) {
	if s.Pub == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled || job.Data == nil {
		return
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("to", job.To).Warn("failed to publish email job")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a simple multi_match search on email and name.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
