package store

import (
	"context"
	"errors"

	"sustainhub-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrIssueNotFound is returned when an issue id matches nothing.
	ErrIssueNotFound = errors.New("issue not found")
	// ErrUserNotFound is returned when a user id or email matches nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrConflict is returned when a transition loses a race against a
	// concurrent transition on the same issue. Callers may re-read and retry.
	ErrConflict = errors.New("issue was modified concurrently")
)

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Address   *string
	Phone     *string
}

// Store is the persistence seam for the issue workflow. ApplyTransition is
// the one write that must be atomic: the status change, the rewardIssued
// flag and the reporter's point credit land together or not at all.
type Store interface {
	InsertIssue(ctx context.Context, issue models.Issue) (models.Issue, error)
	GetIssue(ctx context.Context, id primitive.ObjectID) (models.Issue, error)
	ListIssues(ctx context.Context) ([]models.Issue, error)
	ListIssuesByReporter(ctx context.Context, reporterID primitive.ObjectID) ([]models.Issue, error)

	// ApplyTransition moves the issue from prev to next, guarding on the
	// previously observed status. When awardPoints > 0 it additionally
	// requires rewardIssued to still be false, sets it true, and credits
	// the reporter's rewardPoints, all in the same commit. A failed guard
	// yields ErrConflict.
	ApplyTransition(ctx context.Context, id primitive.ObjectID, prev, next models.IssueStatus, awardPoints int) (models.Issue, error)

	InsertUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUserProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) (models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
}
