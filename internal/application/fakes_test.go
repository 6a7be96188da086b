package application

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/oksasatya/devconnect/internal/domain/entity"
	repo "github.com/oksasatya/devconnect/internal/domain/repository"
)

func clonePost(p *entity.Post) *entity.Post {
	c := *p
	c.Likes = append([]entity.Like{}, p.Likes...)
	c.Comments = append([]entity.Comment{}, p.Comments...)
	return &c
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*entity.Post
	saves int
	// beforeSave runs once per Save call while the lock is held, to simulate
	// a concurrent writer.
	beforeSave func(stored *entity.Post)
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[string]*entity.Post{}}
}

func (r *fakePostRepo) Create(_ context.Context, p *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.NewString()
	r.posts[p.ID] = clonePost(p)
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id string) (*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *fakePostRepo) List(_ context.Context) ([]*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *fakePostRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) Save(_ context.Context, p *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	stored, ok := r.posts[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if r.beforeSave != nil {
		hook := r.beforeSave
		r.beforeSave = nil
		hook(stored)
	}
	if stored.Version != p.Version {
		return repo.ErrVersionConflict
	}
	for i := range p.Likes {
		if p.Likes[i].ID == "" {
			p.Likes[i].ID = uuid.NewString()
		}
	}
	for i := range p.Comments {
		if p.Comments[i].ID == "" {
			p.Comments[i].ID = uuid.NewString()
		}
	}
	p.Version++
	stored.Likes = append([]entity.Like{}, p.Likes...)
	stored.Comments = append([]entity.Comment{}, p.Comments...)
	stored.Version = p.Version
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*entity.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	c := *u
	r.users[u.ID] = &c
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []any
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, body)
	return nil
}
