package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is an append-only note attached to an issue.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Text      string             `bson:"text" json:"text"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	IssueID   primitive.ObjectID `bson:"issueId" json:"issueId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
