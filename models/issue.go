package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusOpen       IssueStatus = "OPEN"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusResolved   IssueStatus = "RESOLVED"
)

// Statuses lists every status in workflow order.
var Statuses = []IssueStatus{StatusOpen, StatusInProgress, StatusResolved}

// ParseIssueStatus accepts only the exact status literals.
func ParseIssueStatus(s string) (IssueStatus, bool) {
	switch IssueStatus(s) {
	case StatusOpen, StatusInProgress, StatusResolved:
		return IssueStatus(s), true
	default:
		return "", false
	}
}

// statusTransitions is the from -> allowed-to table. Administrators may move
// an issue between any two statuses, including re-setting the current one.
var statusTransitions = map[IssueStatus][]IssueStatus{
	StatusOpen:       {StatusOpen, StatusInProgress, StatusResolved},
	StatusInProgress: {StatusOpen, StatusInProgress, StatusResolved},
	StatusResolved:   {StatusOpen, StatusInProgress, StatusResolved},
}

// CanTransition reports whether from -> to is permitted.
func CanTransition(from, to IssueStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Valid reports whether both coordinates are within their ranges.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Photo       string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Location    Location           `bson:"location" json:"location"`
	Status      IssueStatus        `bson:"status" json:"status"`
	Upvotes     int64              `bson:"upvotes" json:"upvotes"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
