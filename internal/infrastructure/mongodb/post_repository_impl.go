package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/oksasatya/devconnect/internal/domain/entity"
	"github.com/oksasatya/devconnect/internal/domain/repository"
)

type likeDocument struct {
	ID   bson.ObjectID `bson:"_id"`
	User string        `bson:"user"`
}

type commentDocument struct {
	ID     bson.ObjectID `bson:"_id"`
	User   string        `bson:"user"`
	Text   string        `bson:"text"`
	Name   string        `bson:"name"`
	Avatar string        `bson:"avatar"`
	Date   time.Time     `bson:"date"`
}

type postDocument struct {
	ID       bson.ObjectID     `bson:"_id,omitempty"`
	User     string            `bson:"user"`
	Text     string            `bson:"text"`
	Name     string            `bson:"name"`
	Avatar   string            `bson:"avatar"`
	Likes    []likeDocument    `bson:"likes"`
	Comments []commentDocument `bson:"comments"`
	Date     time.Time         `bson:"date"`
	Version  int64             `bson:"version"`
}

type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(col *mongo.Collection) *PostRepository {
	return &PostRepository{col: col}
}

func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	doc, err := toDocument(p)
	if err != nil {
		return err
	}
	doc.ID = bson.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	*p = *toEntity(doc)
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc postDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&doc), nil
}

func (r *PostRepository) List(ctx context.Context) ([]*entity.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*entity.Post, 0, len(docs))
	for i := range docs {
		out = append(out, toEntity(&docs[i]))
	}
	return out, nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Save(ctx context.Context, p *entity.Post) error {
	doc, err := toDocument(p)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return repository.ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": doc.ID, "version": p.Version},
		bson.M{
			"$set": bson.M{"likes": doc.Likes, "comments": doc.Comments},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, cErr := r.col.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if cErr != nil {
			return cErr
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}
	doc.Version = p.Version + 1
	*p = *toEntity(doc)
	return nil
}

// toDocument converts p, generating ids for new likes and comments.
func toDocument(p *entity.Post) (*postDocument, error) {
	doc := &postDocument{
		User:     p.UserID,
		Text:     p.Text,
		Name:     p.Name,
		Avatar:   p.Avatar,
		Likes:    make([]likeDocument, 0, len(p.Likes)),
		Comments: make([]commentDocument, 0, len(p.Comments)),
		Date:     p.Date,
		Version:  p.Version,
	}
	if p.ID != "" {
		oid, err := bson.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, repository.ErrNotFound
		}
		doc.ID = oid
	}
	for _, l := range p.Likes {
		id, err := objectIDOrNew(l.ID)
		if err != nil {
			return nil, err
		}
		doc.Likes = append(doc.Likes, likeDocument{ID: id, User: l.UserID})
	}
	for _, c := range p.Comments {
		id, err := objectIDOrNew(c.ID)
		if err != nil {
			return nil, err
		}
		doc.Comments = append(doc.Comments, commentDocument{
			ID: id, User: c.UserID, Text: c.Text, Name: c.Name, Avatar: c.Avatar, Date: c.Date,
		})
	}
	return doc, nil
}

func objectIDOrNew(hex string) (bson.ObjectID, error) {
	if hex == "" {
		return bson.NewObjectID(), nil
	}
	return bson.ObjectIDFromHex(hex)
}

func toEntity(doc *postDocument) *entity.Post {
	p := &entity.Post{
		ID:       doc.ID.Hex(),
		UserID:   doc.User,
		Text:     doc.Text,
		Name:     doc.Name,
		Avatar:   doc.Avatar,
		Likes:    make([]entity.Like, 0, len(doc.Likes)),
		Comments: make([]entity.Comment, 0, len(doc.Comments)),
		Date:     doc.Date,
		Version:  doc.Version,
	}
	for _, l := range doc.Likes {
		p.Likes = append(p.Likes, entity.Like{ID: l.ID.Hex(), UserID: l.User})
	}
	for _, c := range doc.Comments {
		p.Comments = append(p.Comments, entity.Comment{
			ID: c.ID.Hex(), UserID: c.User, Text: c.Text, Name: c.Name, Avatar: c.Avatar, Date: c.Date,
		})
	}
	return p
}

var _ repository.PostRepository = (*PostRepository)(nil)
