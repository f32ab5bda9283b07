package services

import (
	"context"
	"time"

	"naagrik-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStore persists issues. Implementations report a missing document with
// store.ErrNotFound.
type IssueStore interface {
	Insert(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	List(ctx context.Context) ([]models.Issue, error)
	ListByAuthor(ctx context.Context, userID primitive.ObjectID) ([]models.Issue, error)
	// IncrementUpvotes must add one atomically in the storage layer and
	// return the post-image.
	IncrementUpvotes(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.Issue, error)
	// SetStatus returns the pre-image.
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus, now time.Time) (*models.Issue, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CommentStore persists comments.
type CommentStore interface {
	Insert(ctx context.Context, c *models.Comment) error
	ListByIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error)
}

// UserStore persists accounts. Insert reports an email collision with
// store.ErrDuplicate.
type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	IncrementCounters(ctx context.Context, id primitive.ObjectID, reported, resolved int64) error
}
