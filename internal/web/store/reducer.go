package store

import "github.com/oksasatya/devconnect/pkg/client"

type ActionType string

const (
	LoginSuccess  ActionType = "LOGIN_SUCCESS"
	UserLoading   ActionType = "USER_LOADING"
	UserLoaded    ActionType = "USER_LOADED"
	AuthError     ActionType = "AUTH_ERROR"
	LoggedOut     ActionType = "LOGOUT"
	PostsLoading  ActionType = "POSTS_LOADING"
	GetPosts      ActionType = "GET_POSTS"
	PostLoading   ActionType = "POST_LOADING"
	GetPost       ActionType = "GET_POST"
	PostError     ActionType = "POST_ERROR"
	AddPost       ActionType = "ADD_POST"
	DeletePost    ActionType = "DELETE_POST"
	UpdateLikes   ActionType = "UPDATE_LIKES"
	AddComment    ActionType = "ADD_COMMENT"
	RemoveComment ActionType = "REMOVE_COMMENT"
)

type Action struct {
	Type    ActionType
	Payload any
}

// LikesPayload carries the new like list of one post.
type LikesPayload struct {
	PostID string
	Likes  []client.Like
}

// CommentsPayload carries the new comment list of one post.
type CommentsPayload struct {
	PostID   string
	Comments []client.Comment
}

// reduce returns the next state. It never mutates s.
func reduce(s State, a Action) State {
	s = s.clone()
	switch a.Type {
	case LoginSuccess:
		s.Auth.Token, _ = a.Payload.(string)
		s.Auth.IsAuthenticated = s.Auth.Token != ""
		s.Auth.Loading = false
	case UserLoading:
		s.Auth.Loading = true
	case UserLoaded:
		if u, ok := a.Payload.(*client.User); ok {
			s.Auth.User = u
		}
		s.Auth.IsAuthenticated = true
		s.Auth.Loading = false
	case AuthError, LoggedOut:
		s.Auth = AuthState{}
		s.Posts = initialState().Posts
	case PostsLoading:
		s.Posts.Status = StatusLoading
		s.Posts.Err = ""
	case GetPosts:
		posts, _ := a.Payload.([]client.Post)
		if posts == nil {
			posts = []client.Post{}
		}
		s.Posts.Posts = posts
		s.Posts.Status = StatusLoaded
	case PostLoading:
		s.Posts.Post = nil
		s.Posts.Status = StatusLoading
		s.Posts.Err = ""
	case GetPost:
		if p, ok := a.Payload.(*client.Post); ok {
			s.Posts.Post = p
		}
		s.Posts.Status = StatusLoaded
	case PostError:
		s.Posts.Err, _ = a.Payload.(string)
		s.Posts.Status = StatusError
	case AddPost:
		if p, ok := a.Payload.(*client.Post); ok {
			s.Posts.Posts = append([]client.Post{*p}, s.Posts.Posts...)
		}
	case DeletePost:
		id, _ := a.Payload.(string)
		kept := s.Posts.Posts[:0]
		for _, p := range s.Posts.Posts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		s.Posts.Posts = kept
		if s.Posts.Post != nil && s.Posts.Post.ID == id {
			s.Posts.Post = nil
		}
	case UpdateLikes:
		pl, _ := a.Payload.(LikesPayload)
		for i := range s.Posts.Posts {
			if s.Posts.Posts[i].ID == pl.PostID {
				s.Posts.Posts[i].Likes = pl.Likes
			}
		}
		if s.Posts.Post != nil && s.Posts.Post.ID == pl.PostID {
			s.Posts.Post.Likes = pl.Likes
		}
	case AddComment, RemoveComment:
		pl, _ := a.Payload.(CommentsPayload)
		if s.Posts.Post != nil && s.Posts.Post.ID == pl.PostID {
			s.Posts.Post.Comments = pl.Comments
		}
		for i := range s.Posts.Posts {
			if s.Posts.Posts[i].ID == pl.PostID {
				s.Posts.Posts[i].Comments = pl.Comments
			}
		}
	}
	return s
}
