package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrResetUnavailable   = errors.New("password reset unavailable")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
	ErrSessionStore       = errors.New("session store unavailable")

	ErrPostNotFound     = errors.New("post not found")
	ErrCommentNotFound  = errors.New("comment does not exist")
	ErrNotAuthorized    = errors.New("user not authorized")
	ErrAlreadyLiked     = errors.New("post already liked")
	ErrNotLiked         = errors.New("post has not yet been liked")
	ErrEmptyText        = errors.New("text is required")
	ErrConcurrentUpdate = errors.New("post was modified concurrently, try again")
)
