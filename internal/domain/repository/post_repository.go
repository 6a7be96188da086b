package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/devconnect/internal/domain/entity"
)

// ErrVersionConflict means the post was written by someone else since it was read.
var ErrVersionConflict = errors.New("version conflict")

// PostRepository persists posts together with their embedded likes and comments.
type PostRepository interface {
	Create(ctx context.Context, p *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	// List returns every post, newest first.
	List(ctx context.Context) ([]*entity.Post, error)
	Delete(ctx context.Context, id string) error
	// Save writes likes and comments only if the stored version still equals
	// p.Version. Missing like/comment ids are assigned and p.Version is
	// advanced on success.
	Save(ctx context.Context, p *entity.Post) error
}
