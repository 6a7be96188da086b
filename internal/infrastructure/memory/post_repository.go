// Package memory holds map-backed repositories with the same semantics as the
// database-backed ones. They back handler and web tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oksasatya/devconnect/internal/domain/entity"
	"github.com/oksasatya/devconnect/internal/domain/repository"
)

type PostRepository struct {
	mu    sync.RWMutex
	posts map[string]*entity.Post
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: map[string]*entity.Post{}}
}

func clonePost(p *entity.Post) *entity.Post {
	c := *p
	c.Likes = append([]entity.Like{}, p.Likes...)
	c.Comments = append([]entity.Comment{}, p.Comments...)
	return &c
}

func (r *PostRepository) Create(_ context.Context, p *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = bson.NewObjectID().Hex()
	p.Version = 0
	if p.Likes == nil {
		p.Likes = []entity.Like{}
	}
	if p.Comments == nil {
		p.Comments = []entity.Comment{}
	}
	r.posts[p.ID] = clonePost(p)
	return nil
}

func (r *PostRepository) GetByID(_ context.Context, id string) (*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *PostRepository) List(_ context.Context) ([]*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, clonePost(p))
	}
	// newest first, ties broken by id descending like the mongo store
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *PostRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *PostRepository) Save(_ context.Context, p *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != p.Version {
		return repository.ErrVersionConflict
	}
	for i := range p.Likes {
		if p.Likes[i].ID == "" {
			p.Likes[i].ID = bson.NewObjectID().Hex()
		}
	}
	for i := range p.Comments {
		if p.Comments[i].ID == "" {
			p.Comments[i].ID = bson.NewObjectID().Hex()
		}
	}
	p.Version++
	stored.Likes = append([]entity.Like{}, p.Likes...)
	stored.Comments = append([]entity.Comment{}, p.Comments...)
	stored.Version = p.Version
	return nil
}
