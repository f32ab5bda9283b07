package store

import (
	"context"
	"fmt"
	"time"

	"naagrik-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type IssueRepository struct {
	coll *mongo.Collection
}

func NewIssueRepository(db *mongo.Database) *IssueRepository {
	return &IssueRepository{coll: db.Collection(models.IssuesCollection)}
}

func (r *IssueRepository) Insert(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, issue); err != nil {
		return translate(err)
	}
	return nil
}

func (r *IssueRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&issue); err != nil {
		return nil, translate(err)
	}
	return &issue, nil
}

// List returns every issue, newest first.
func (r *IssueRepository) List(ctx context.Context) ([]models.Issue, error) {
	return r.find(ctx, bson.M{})
}

// ListByAuthor returns the issues created by userID, newest first.
func (r *IssueRepository) ListByAuthor(ctx context.Context, userID primitive.ObjectID) ([]models.Issue, error) {
	return r.find(ctx, bson.M{"createdBy": userID})
}

func (r *IssueRepository) find(ctx context.Context, filter bson.M) ([]models.Issue, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}

// IncrementUpvotes adds exactly one upvote in a single server-side
// find-and-modify and returns the updated document.
func (r *IssueRepository) IncrementUpvotes(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.Issue, error) {
	update := bson.M{
		"$inc": bson.M{"upvotes": 1},
		"$set": bson.M{"updatedAt": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&issue); err != nil {
		return nil, translate(err)
	}
	return &issue, nil
}

// SetStatus replaces the status and returns the document as it was before
// the update.
func (r *IssueRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus, now time.Time) (*models.Issue, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before models.Issue
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&before); err != nil {
		return nil, translate(err)
	}
	return &before, nil
}

// Delete removes the issue only; its comments stay in place.
func (r *IssueRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
