package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sustainhub-be/models"
	"sustainhub-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RewardPoints is credited to the reporter exactly once per issue, when a
// moderator accepts it. Accepting is the reward edge rather than creation so
// that unverified reports earn nothing.
const RewardPoints = 10

// ErrForbidden is returned when the actor lacks transition authority.
var ErrForbidden = errors.New("only admins can change issue status")

// InvalidTransitionError reports a requested edge that is not in the
// review pipeline.
type InvalidTransitionError struct {
	Current   models.IssueStatus
	Requested models.IssueStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition issue from %s to %s", e.Current, e.Requested)
}

// ValidationError reports a malformed create-issue input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateTransition decides whether the review pipeline permits moving
// from current to requested. It is a pure function with no side effects.
func ValidateTransition(current, requested models.IssueStatus) error {
	if !requested.IsValid() {
		return &InvalidTransitionError{Current: current, Requested: requested}
	}
	if !current.CanTransitionTo(requested) {
		return &InvalidTransitionError{Current: current, Requested: requested}
	}
	return nil
}

// WorkflowService owns issue creation and the status transition pipeline,
// including the reward credit tied to the accept edge.
type WorkflowService struct {
	store store.Store
}

func NewWorkflowService(s store.Store) *WorkflowService {
	return &WorkflowService{store: s}
}

// CreateIssue validates the input and inserts a new PENDING issue.
func (s *WorkflowService) CreateIssue(ctx context.Context, reporterID primitive.ObjectID, category, description string, latitude, longitude float64, imageURL string) (models.Issue, error) {
	if strings.TrimSpace(category) == "" {
		return models.Issue{}, &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if strings.TrimSpace(description) == "" {
		return models.Issue{}, &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if latitude < -90 || latitude > 90 {
		return models.Issue{}, &ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
	}
	if longitude < -180 || longitude > 180 {
		return models.Issue{}, &ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
	}
	if strings.TrimSpace(imageURL) == "" {
		return models.Issue{}, &ValidationError{Field: "imageUrl", Reason: "must not be empty"}
	}

	now := time.Now()
	issue := models.Issue{
		ReporterID:   reporterID,
		Category:     category,
		Description:  description,
		Latitude:     latitude,
		Longitude:    longitude,
		ImageURL:     imageURL,
		Status:       models.StatusPending,
		RewardIssued: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.store.InsertIssue(ctx, issue)
}

// Transition drives an issue one step through the review pipeline. Only
// admins may transition. The reward credit is decided here from the state
// read before the commit; the store's guard on that state turns any
// concurrent interleaving into store.ErrConflict instead of a double award.
func (s *WorkflowService) Transition(ctx context.Context, issueID primitive.ObjectID, requested models.IssueStatus, actorRole models.Role) (models.Issue, error) {
	if actorRole != models.RoleAdmin {
		return models.Issue{}, ErrForbidden
	}

	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return models.Issue{}, err
	}

	if err := ValidateTransition(issue.Status, requested); err != nil {
		return models.Issue{}, err
	}

	awardPoints := 0
	if issue.Status == models.StatusPending && requested == models.StatusAccepted && !issue.RewardIssued {
		awardPoints = RewardPoints
	}

	return s.store.ApplyTransition(ctx, issueID, issue.Status, requested, awardPoints)
}

// GetIssue returns a single issue by id.
func (s *WorkflowService) GetIssue(ctx context.Context, issueID primitive.ObjectID) (models.Issue, error) {
	return s.store.GetIssue(ctx, issueID)
}

// ListByReporter returns all issues created by the given reporter,
// newest first.
func (s *WorkflowService) ListByReporter(ctx context.Context, reporterID primitive.ObjectID) ([]models.Issue, error) {
	return s.store.ListIssuesByReporter(ctx, reporterID)
}

// ListAll returns every issue, newest first.
func (s *WorkflowService) ListAll(ctx context.Context) ([]models.Issue, error) {
	return s.store.ListIssues(ctx)
}

// ListForDisplay projects all issues down to the fields the map needs.
func (s *WorkflowService) ListForDisplay(ctx context.Context) ([]MapIssue, error) {
	issues, err := s.store.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]MapIssue, 0, len(issues))
	for _, issue := range issues {
		points = append(points, MapIssue{
			ID:        issue.ID,
			Latitude:  issue.Latitude,
			Longitude: issue.Longitude,
			Status:    issue.Status,
			Category:  issue.Category,
		})
	}
	return points, nil
}
