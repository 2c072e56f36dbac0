package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"sustainhub-be/models"
	"sustainhub-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestUser(t *testing.T, s *store.MemoryStore, role models.Role) models.User {
	t.Helper()
	user, err := s.InsertUser(context.Background(), models.User{
		Email:     primitive.NewObjectID().Hex() + "@example.com",
		Role:      role,
		FirstName: "Test",
		LastName:  "User",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return user
}

func newTestIssue(t *testing.T, svc *WorkflowService, reporterID primitive.ObjectID) models.Issue {
	t.Helper()
	issue, err := svc.CreateIssue(context.Background(), reporterID, "Road", "Pothole on main street", 28.65, 77.02, "https://img.example.com/pothole.jpg")
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return issue
}

func TestValidateTransitionMatrix(t *testing.T) {
	statuses := []models.IssueStatus{
		models.StatusPending,
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusInProgress,
		models.StatusResolved,
	}

	allowed := map[models.IssueStatus]map[models.IssueStatus]bool{
		models.StatusPending:    {models.StatusAccepted: true, models.StatusRejected: true},
		models.StatusAccepted:   {models.StatusInProgress: true},
		models.StatusInProgress: {models.StatusResolved: true},
	}

	for _, current := range statuses {
		for _, requested := range statuses {
			err := ValidateTransition(current, requested)
			wantAllowed := allowed[current][requested]
			if wantAllowed && err != nil {
				t.Errorf("validate(%s, %s): unexpected rejection: %v", current, requested, err)
			}
			if !wantAllowed {
				var invalidErr *InvalidTransitionError
				if !errors.As(err, &invalidErr) {
					t.Errorf("validate(%s, %s): expected InvalidTransitionError, got %v", current, requested, err)
					continue
				}
				if invalidErr.Current != current || invalidErr.Requested != requested {
					t.Errorf("validate(%s, %s): error carries (%s, %s)", current, requested, invalidErr.Current, invalidErr.Requested)
				}
			}
		}
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	err := ValidateTransition(models.StatusPending, models.IssueStatus("ARCHIVED"))
	var invalidErr *InvalidTransitionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidTransitionError for unknown status, got %v", err)
	}
}

func TestCreateIssueValidation(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)

	cases := []struct {
		name        string
		category    string
		description string
		latitude    float64
		longitude   float64
		imageURL    string
	}{
		{"empty category", "", "desc", 10, 10, "img"},
		{"blank description", "Road", "   ", 10, 10, "img"},
		{"latitude out of range", "Road", "desc", 91, 10, "img"},
		{"longitude out of range", "Road", "desc", 10, -181, "img"},
		{"empty image", "Road", "desc", 10, 10, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateIssue(context.Background(), reporter.ID, tc.category, tc.description, tc.latitude, tc.longitude, tc.imageURL)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	issue := newTestIssue(t, svc, reporter.ID)
	if issue.Status != models.StatusPending {
		t.Errorf("new issue status = %s, want PENDING", issue.Status)
	}
	if issue.RewardIssued {
		t.Error("new issue must not have rewardIssued set")
	}
}

func TestTransitionRequiresAdmin(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)
	issue := newTestIssue(t, svc, reporter.ID)

	_, err := svc.Transition(context.Background(), issue.ID, models.StatusAccepted, models.RoleUser)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestTransitionUnknownIssue(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)

	_, err := svc.Transition(context.Background(), primitive.NewObjectID(), models.StatusAccepted, models.RoleAdmin)
	if !errors.Is(err, store.ErrIssueNotFound) {
		t.Fatalf("expected ErrIssueNotFound, got %v", err)
	}
}

func TestRewardCreditedOnceOnAccept(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)
	issue := newTestIssue(t, svc, reporter.ID)

	updated, err := svc.Transition(context.Background(), issue.ID, models.StatusAccepted, models.RoleAdmin)
	if err != nil {
		t.Fatalf("transition to ACCEPTED: %v", err)
	}
	if !updated.RewardIssued {
		t.Error("rewardIssued must be true after accept")
	}

	credited, err := s.GetUser(context.Background(), reporter.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if credited.RewardPoints != RewardPoints {
		t.Fatalf("reporter points = %d, want %d", credited.RewardPoints, RewardPoints)
	}

	// A duplicate request replays the same edge; it must not credit again.
	_, err = svc.Transition(context.Background(), issue.ID, models.StatusAccepted, models.RoleAdmin)
	var invalidErr *InvalidTransitionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("duplicate accept: expected InvalidTransitionError, got %v", err)
	}

	credited, _ = s.GetUser(context.Background(), reporter.ID)
	if credited.RewardPoints != RewardPoints {
		t.Fatalf("reporter points after duplicate = %d, want %d", credited.RewardPoints, RewardPoints)
	}

	after, _ := s.GetIssue(context.Background(), issue.ID)
	if !after.RewardIssued {
		t.Error("rewardIssued must remain true")
	}
}

func TestNoRewardOnLaterEdges(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)
	issue := newTestIssue(t, svc, reporter.ID)

	ctx := context.Background()
	for _, next := range []models.IssueStatus{models.StatusAccepted, models.StatusInProgress, models.StatusResolved} {
		if _, err := svc.Transition(ctx, issue.ID, next, models.RoleAdmin); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	credited, _ := s.GetUser(ctx, reporter.ID)
	if credited.RewardPoints != RewardPoints {
		t.Fatalf("reporter points = %d, want exactly %d", credited.RewardPoints, RewardPoints)
	}
}

func TestRejectedIssueEarnsNothing(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)
	issue := newTestIssue(t, svc, reporter.ID)

	if _, err := svc.Transition(context.Background(), issue.ID, models.StatusRejected, models.RoleAdmin); err != nil {
		t.Fatalf("transition to REJECTED: %v", err)
	}

	user, _ := s.GetUser(context.Background(), reporter.ID)
	if user.RewardPoints != 0 {
		t.Fatalf("reporter points = %d, want 0 for a rejected issue", user.RewardPoints)
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)
	ctx := context.Background()

	rejected := newTestIssue(t, svc, reporter.ID)
	if _, err := svc.Transition(ctx, rejected.ID, models.StatusRejected, models.RoleAdmin); err != nil {
		t.Fatalf("reject: %v", err)
	}

	resolved := newTestIssue(t, svc, reporter.ID)
	for _, next := range []models.IssueStatus{models.StatusAccepted, models.StatusInProgress, models.StatusResolved} {
		if _, err := svc.Transition(ctx, resolved.ID, next, models.RoleAdmin); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	targets := []models.IssueStatus{
		models.StatusPending,
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusInProgress,
		models.StatusResolved,
	}
	for _, terminal := range []primitive.ObjectID{rejected.ID, resolved.ID} {
		for _, next := range targets {
			_, err := svc.Transition(ctx, terminal, next, models.RoleAdmin)
			var invalidErr *InvalidTransitionError
			if !errors.As(err, &invalidErr) {
				t.Errorf("terminal issue transition to %s: expected InvalidTransitionError, got %v", next, err)
			}
		}
	}
}

func TestConcurrentTransitionLosesWithConflict(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)
	issue := newTestIssue(t, svc, reporter.ID)
	ctx := context.Background()

	// Another request advanced the issue between this caller's read and
	// its commit; the stale guard must fail the commit.
	if _, err := svc.Transition(ctx, issue.ID, models.StatusAccepted, models.RoleAdmin); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	_, err := s.ApplyTransition(ctx, issue.ID, models.StatusPending, models.StatusRejected, 0)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale commit: expected ErrConflict, got %v", err)
	}

	user, _ := s.GetUser(ctx, reporter.ID)
	if user.RewardPoints != RewardPoints {
		t.Fatalf("reporter points = %d, want %d", user.RewardPoints, RewardPoints)
	}
}

func TestStaleAwardDoesNotDoubleCredit(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)
	issue := newTestIssue(t, svc, reporter.ID)
	ctx := context.Background()

	if _, err := svc.Transition(ctx, issue.ID, models.StatusAccepted, models.RoleAdmin); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// A second awarding commit built from a stale PENDING read must abort
	// outright rather than credit twice.
	_, err := s.ApplyTransition(ctx, issue.ID, models.StatusPending, models.StatusAccepted, RewardPoints)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	user, _ := s.GetUser(ctx, reporter.ID)
	if user.RewardPoints != RewardPoints {
		t.Fatalf("reporter points = %d, want %d", user.RewardPoints, RewardPoints)
	}
}

func TestFullReviewScenario(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)
	ctx := context.Background()

	issue := newTestIssue(t, svc, reporter.ID)
	if issue.Status != models.StatusPending {
		t.Fatalf("issue starts in %s, want PENDING", issue.Status)
	}

	accepted, err := svc.Transition(ctx, issue.ID, models.StatusAccepted, models.RoleAdmin)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !accepted.RewardIssued {
		t.Error("rewardIssued must be true after accept")
	}

	user, _ := s.GetUser(ctx, reporter.ID)
	if user.RewardPoints != 10 {
		t.Fatalf("reporter points = %d, want 10", user.RewardPoints)
	}

	_, err = svc.Transition(ctx, issue.ID, models.StatusPending, models.RoleAdmin)
	var invalidErr *InvalidTransitionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("moving back to PENDING: expected InvalidTransitionError, got %v", err)
	}
}

func TestListForDisplayProjection(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewWorkflowService(s)
	reporter := newTestUser(t, s, models.RoleUser)

	issue := newTestIssue(t, svc, reporter.ID)

	points, err := svc.ListForDisplay(context.Background())
	if err != nil {
		t.Fatalf("list for display: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("got %d map points, want 1", len(points))
	}
	p := points[0]
	if p.ID != issue.ID || p.Latitude != issue.Latitude || p.Longitude != issue.Longitude ||
		p.Status != issue.Status || p.Category != issue.Category {
		t.Errorf("projection mismatch: %+v vs issue %+v", p, issue)
	}
}
