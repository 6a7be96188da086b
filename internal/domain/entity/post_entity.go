package entity

import "time"

// Post is the aggregate root for the feed. Likes and comments have no
// lifecycle outside their post and are always written together with it.
//
// Version is bumped by the store on every successful write and is used as
// the guard for conditional updates.
type Post struct {
	ID       string
	UserID   string
	Text     string
	Name     string
	Avatar   string
	Likes    []Like
	Comments []Comment
	Date     time.Time
	Version  int64
}

// Like marks a single user's like on a post.
type Like struct {
	ID     string
	UserID string
}

// Comment is a reply embedded in a post with a snapshot of its author.
type Comment struct {
	ID     string
	UserID string
	Text   string
	Name   string
	Avatar string
	Date   time.Time
}

// LikedBy reports whether userID already appears in the like list.
func (p *Post) LikedBy(userID string) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// AddLike prepends a like for userID. It returns false and leaves the list
// untouched when the user already liked the post.
func (p *Post) AddLike(userID string) bool {
	if p.LikedBy(userID) {
		return false
	}
	p.Likes = append([]Like{{UserID: userID}}, p.Likes...)
	return true
}

// RemoveLike drops the like of userID, returning false if there was none.
func (p *Post) RemoveLike(userID string) bool {
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
			return true
		}
	}
	return false
}

// AddComment prepends c so the newest comment comes first.
func (p *Post) AddComment(c Comment) {
	p.Comments = append([]Comment{c}, p.Comments...)
}

// FindComment returns the comment with the given id.
func (p *Post) FindComment(id string) (*Comment, bool) {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i], true
		}
	}
	return nil, false
}

// RemoveComment deletes the comment with the given id.
func (p *Post) RemoveComment(id string) bool {
	for i, c := range p.Comments {
		if c.ID == id {
			p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
			return true
		}
	}
	return false
}
