// Package store keeps the client-side state of one web session. Actions call
// the API and dispatch the result; the store is the single source of truth
// for the views.
package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnect/pkg/client"
)

type Store struct {
	mu     sync.RWMutex
	state  State
	api    *client.Client
	logger *logrus.Logger

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(State)
}

func New(api *client.Client, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{state: initialState(), api: api, logger: logger, subs: map[int]func(State){}}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to run after every dispatch. The returned func
// removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Dispatch applies a to the state and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = reduce(s.state, a)
	snap := s.state.clone()
	s.mu.Unlock()

	s.logger.WithField("action", a.Type).Debug("dispatch")

	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) authed() *client.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api.WithToken(s.state.Auth.Token)
}

// fail records err on the posts slice, or drops the session on a 401.
func (s *Store) fail(err error) error {
	if client.IsUnauthorized(err) {
		s.Dispatch(Action{Type: AuthError})
		return err
	}
	s.Dispatch(Action{Type: PostError, Payload: err.Error()})
	return err
}

// SetToken restores a previously issued token without calling the API.
func (s *Store) SetToken(token string) {
	s.Dispatch(Action{Type: LoginSuccess, Payload: token})
}

func (s *Store) LoadUser(ctx context.Context) error {
	if s.State().Auth.Token == "" {
		s.Dispatch(Action{Type: AuthError})
		return nil
	}
	s.Dispatch(Action{Type: UserLoading})
	u, err := s.authed().LoadUser(ctx)
	if err != nil {
		s.Dispatch(Action{Type: AuthError})
		return err
	}
	s.Dispatch(Action{Type: UserLoaded, Payload: u})
	return nil
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	c, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.Dispatch(Action{Type: AuthError})
		return err
	}
	s.Dispatch(Action{Type: LoginSuccess, Payload: c.Token()})
	return s.LoadUser(ctx)
}

func (s *Store) Register(ctx context.Context, name, email, password string) error {
	c, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		s.Dispatch(Action{Type: AuthError})
		return err
	}
	s.Dispatch(Action{Type: LoginSuccess, Payload: c.Token()})
	return s.LoadUser(ctx)
}

func (s *Store) Logout(ctx context.Context) {
	if err := s.authed().Logout(ctx); err != nil {
		s.logger.WithError(err).Debug("logout call failed")
	}
	s.Dispatch(Action{Type: LoggedOut})
}

func (s *Store) GetPosts(ctx context.Context) error {
	s.Dispatch(Action{Type: PostsLoading})
	posts, err := s.authed().ListPosts(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.Dispatch(Action{Type: GetPosts, Payload: posts})
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) error {
	s.Dispatch(Action{Type: PostLoading})
	p, err := s.authed().GetPost(ctx, id)
	if err != nil {
		return s.fail(err)
	}
	s.Dispatch(Action{Type: GetPost, Payload: p})
	return nil
}

func (s *Store) AddPost(ctx context.Context, text string) error {
	p, err := s.authed().CreatePost(ctx, text)
	if err != nil {
		return s.fail(err)
	}
	s.Dispatch(Action{Type: AddPost, Payload: p})
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	if err := s.authed().DeletePost(ctx, id); err != nil {
		return s.fail(err)
	}
	s.Dispatch(Action{Type: DeletePost, Payload: id})
	return nil
}

func (s *Store) AddLike(ctx context.Context, id string) error {
	likes, err := s.authed().Like(ctx, id)
	if err != nil {
		return s.fail(err)
	}
	s.Dispatch(Action{Type: UpdateLikes, Payload: LikesPayload{PostID: id, Likes: likes}})
	return nil
}

func (s *Store) RemoveLike(ctx context.Context, id string) error {
	likes, err := s.authed().Unlike(ctx, id)
	if err != nil {
		return s.fail(err)
	}
	s.Dispatch(Action{Type: UpdateLikes, Payload: LikesPayload{PostID: id, Likes: likes}})
	return nil
}

func (s *Store) AddComment(ctx context.Context, id, text string) error {
	comments, err := s.authed().AddComment(ctx, id, text)
	if err != nil {
		return s.fail(err)
	}
	s.Dispatch(Action{Type: AddComment, Payload: CommentsPayload{PostID: id, Comments: comments}})
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id, commentID string) error {
	comments, err := s.authed().DeleteComment(ctx, id, commentID)
	if err != nil {
		return s.fail(err)
	}
	s.Dispatch(Action{Type: RemoveComment, Payload: CommentsPayload{PostID: id, Comments: comments}})
	return nil
}
