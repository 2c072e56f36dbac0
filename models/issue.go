package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusPending    IssueStatus = "PENDING"
	StatusAccepted   IssueStatus = "ACCEPTED"
	StatusRejected   IssueStatus = "REJECTED"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusResolved   IssueStatus = "RESOLVED"
)

// IsValid reports whether s is one of the five known statuses.
func (s IssueStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// transitions is the review pipeline. It is deliberately linear: no
// skipping forward, no going back. REJECTED and RESOLVED are terminal.
var transitions = map[IssueStatus][]IssueStatus{
	StatusPending:    {StatusAccepted, StatusRejected},
	StatusAccepted:   {StatusInProgress},
	StatusInProgress: {StatusResolved},
	StatusRejected:   {},
	StatusResolved:   {},
}

// CanTransitionTo reports whether the pipeline permits moving from s to next.
func (s IssueStatus) CanTransitionTo(next IssueStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DisplayPriority orders statuses for map display; lower is more
// prominent. Active states outrank closed ones.
func (s IssueStatus) DisplayPriority() int {
	switch s {
	case StatusPending:
		return 0
	case StatusAccepted:
		return 1
	case StatusInProgress:
		return 2
	case StatusRejected:
		return 3
	case StatusResolved:
		return 4
	}
	return 5
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReporterID   primitive.ObjectID `bson:"userId" json:"userId"`
	Category     string             `bson:"category" json:"category"`
	Description  string             `bson:"description" json:"description"`
	Latitude     float64            `bson:"latitude" json:"latitude"`
	Longitude    float64            `bson:"longitude" json:"longitude"`
	ImageURL     string             `bson:"imageUrl" json:"imageUrl"`
	Status       IssueStatus        `bson:"status" json:"status"`
	RewardIssued bool               `bson:"rewardIssued" json:"rewardIssued"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
