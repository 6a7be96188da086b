package application

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnect/config"
	"github.com/oksasatya/devconnect/internal/domain/entity"
	repo "github.com/oksasatya/devconnect/internal/domain/repository"
	"github.com/oksasatya/devconnect/pkg/mailer"
	mailtpl "github.com/oksasatya/devconnect/pkg/mailer/templates"
)

// maxSaveAttempts bounds how often a mutation is re-applied after losing a
// version race.
const maxSaveAttempts = 3

var (
	postsCreated    = expvar.NewInt("posts_created")
	postsDeleted    = expvar.NewInt("posts_deleted")
	likesAdded      = expvar.NewInt("post_likes_added")
	likesRemoved    = expvar.NewInt("post_likes_removed")
	commentsAdded   = expvar.NewInt("post_comments_added")
	commentsDeleted = expvar.NewInt("post_comments_deleted")
	saveConflicts   = expvar.NewInt("post_save_conflicts")
)

type PostService struct {
	Posts        repo.PostRepository
	Users        repo.UserRepository
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESPostsIndex string
	Pub          JobPublisher
	Cfg          *config.Config

	now func() time.Time
}

func NewPostService(posts repo.PostRepository, users repo.UserRepository, logger *logrus.Logger, es *elasticsearch.Client, esPostsIndex string, pub JobPublisher, cfg *config.Config) *PostService {
	return &PostService{
		Posts:        posts,
		Users:        users,
		Logger:       orDiscard(logger),
		ES:           es,
		ESPostsIndex: esPostsIndex,
		Pub:          pub,
		Cfg:          cfg,
		now:          time.Now,
	}
}

func (s *PostService) author(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// CreatePost stores a new post authored by userID with a snapshot of the
// author's name and avatar.
func (s *PostService) CreatePost(ctx context.Context, userID, text string) (*entity.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	u, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &entity.Post{
		UserID:   u.ID,
		Text:     text,
		Name:     u.Name,
		Avatar:   u.AvatarURL,
		Likes:    []entity.Like{},
		Comments: []entity.Comment{},
		Date:     s.now().UTC(),
	}
	if err := s.Posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	postsCreated.Add(1)
	s.indexPost(ctx, p)
	return p, nil
}

func (s *PostService) ListPosts(ctx context.Context) ([]*entity.Post, error) {
	posts, err := s.Posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*entity.Post, error) {
	p, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// DeletePost removes the post if userID is its author.
func (s *PostService) DeletePost(ctx context.Context, userID, id string) error {
	p, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return ErrNotAuthorized
	}
	if err := s.Posts.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}
	postsDeleted.Add(1)
	s.unindexPost(ctx, id)
	return nil
}

// LikePost adds userID to the like list and returns the new list.
func (s *PostService) LikePost(ctx context.Context, userID, id string) ([]entity.Like, error) {
	p, err := s.mutate(ctx, id, func(p *entity.Post) error {
		if !p.AddLike(userID) {
			return ErrAlreadyLiked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	likesAdded.Add(1)
	return p.Likes, nil
}

// UnlikePost removes userID from the like list and returns the new list.
func (s *PostService) UnlikePost(ctx context.Context, userID, id string) ([]entity.Like, error) {
	p, err := s.mutate(ctx, id, func(p *entity.Post) error {
		if !p.RemoveLike(userID) {
			return ErrNotLiked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	likesRemoved.Add(1)
	return p.Likes, nil
}

// AddComment prepends a comment by userID and returns the comment list.
func (s *PostService) AddComment(ctx context.Context, userID, id, text string) ([]entity.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	u, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.mutate(ctx, id, func(p *entity.Post) error {
		p.AddComment(entity.Comment{
			UserID: u.ID,
			Text:   text,
			Name:   u.Name,
			Avatar: u.AvatarURL,
			Date:   s.now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	commentsAdded.Add(1)
	s.notifyCommented(ctx, p, u, text)
	return p.Comments, nil
}

// DeleteComment removes commentID from the post if userID wrote it.
func (s *PostService) DeleteComment(ctx context.Context, userID, id, commentID string) ([]entity.Comment, error) {
	p, err := s.mutate(ctx, id, func(p *entity.Post) error {
		c, ok := p.FindComment(commentID)
		if !ok {
			return ErrCommentNotFound
		}
		if c.UserID != userID {
			return ErrNotAuthorized
		}
		p.RemoveComment(commentID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	commentsDeleted.Add(1)
	return p.Comments, nil
}

// mutate loads the post, applies fn and saves it guarded by the loaded
// version. A lost race reloads and re-applies fn so every guard in fn is
// evaluated against the latest document.
func (s *PostService) mutate(ctx context.Context, id string, fn func(p *entity.Post) error) (*entity.Post, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		p, err := s.GetPost(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(p); err != nil {
			return nil, err
		}
		err = s.Posts.Save(ctx, p)
		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrPostNotFound
		case errors.Is(err, repo.ErrVersionConflict):
			saveConflicts.Add(1)
			s.Logger.WithFields(logrus.Fields{"post_id": id, "attempt": attempt}).Debug("post version conflict, retrying")
		default:
			return nil, fmt.Errorf("save post: %w", err)
		}
	}
	return nil, ErrConcurrentUpdate
}

func (s *PostService) notifyCommented(ctx context.Context, p *entity.Post, commenter *entity.User, text string) {
	if s.Pub == nil || s.Cfg == nil || !s.Cfg.NotifyEnabled || !s.Cfg.MailSendEnabled {
		return
	}
	if p.UserID == commenter.ID {
		return
	}
	owner, err := s.Users.GetByID(ctx, p.UserID)
	if err != nil {
		s.Logger.WithError(err).WithField("post_id", p.ID).Warn("comment notification: author lookup failed")
		return
	}
	data := mailtpl.NewPostCommentedData(s.Cfg, owner.Name, owner.Email, commenter.Name, p.ID, p.Text, text, mailtpl.WithTime(s.now()))
	job := mailer.EmailJob{To: owner.Email, Template: mailtpl.PostCommented, Data: data}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("post_id", p.ID).Warn("failed to publish comment notification")
	}
}

func (s *PostService) indexPost(ctx context.Context, p *entity.Post) {
	if s.ES == nil || s.ESPostsIndex == "" {
		return
	}
	doc := map[string]any{
		"id":   p.ID,
		"user": p.UserID,
		"name": p.Name,
		"text": p.Text,
		"date": p.Date.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESPostsIndex, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("post_id", p.ID).Warn("es index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("post_id", p.ID).Warn("es index response error")
	}
}

func (s *PostService) unindexPost(ctx context.Context, id string) {
	if s.ES == nil || s.ESPostsIndex == "" {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := esapi.DeleteRequest{Index: s.ESPostsIndex, DocumentID: id}.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("post_id", id).Warn("es delete failed")
		return
	}
	_ = res.Body.Close()
}

// SearchPosts runs a full-text query over post text and author names and
// loads the matching posts from the store, in relevance order.
func (s *PostService) SearchPosts(ctx context.Context, q string, size int) ([]*entity.Post, error) {
	q = strings.TrimSpace(q)
	if s.ES == nil || s.ESPostsIndex == "" || q == "" {
		return []*entity.Post{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"text^2", "name"},
			},
		},
		"size":    size,
		"_source": false,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESPostsIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search posts: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	out := make([]*entity.Post, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		p, err := s.Posts.GetByID(ctx, h.ID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load post: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
