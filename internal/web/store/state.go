package store

import "github.com/oksasatya/devconnect/pkg/client"

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

type AuthState struct {
	Token           string
	IsAuthenticated bool
	Loading         bool
	User            *client.User
}

type PostsState struct {
	Posts  []client.Post
	Post   *client.Post // current post of the discussion page
	Status Status
	Err    string
}

type State struct {
	Auth  AuthState
	Posts PostsState
}

func initialState() State {
	return State{
		Posts: PostsState{Posts: []client.Post{}, Status: StatusIdle},
	}
}

func clonePost(p client.Post) client.Post {
	p.Likes = append([]client.Like{}, p.Likes...)
	p.Comments = append([]client.Comment{}, p.Comments...)
	return p
}

// clone copies every slice so a snapshot never aliases the store's state.
func (s State) clone() State {
	out := s
	if s.Auth.User != nil {
		u := *s.Auth.User
		out.Auth.User = &u
	}
	out.Posts.Posts = make([]client.Post, 0, len(s.Posts.Posts))
	for _, p := range s.Posts.Posts {
		out.Posts.Posts = append(out.Posts.Posts, clonePost(p))
	}
	if s.Posts.Post != nil {
		p := clonePost(*s.Posts.Post)
		out.Posts.Post = &p
	}
	return out
}
