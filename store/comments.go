package store

import (
	"context"
	"fmt"

	"naagrik-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommentRepository struct {
	coll *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{coll: db.Collection(models.CommentsCollection)}
}

func (r *CommentRepository) Insert(ctx context.Context, c *models.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return translate(err)
	}
	return nil
}

// ListByIssue returns the comments attached to issueID, newest first.
func (r *CommentRepository) ListByIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"issueId": issueID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return comments, nil
}
