package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"sustainhub-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore implements Store using in-memory maps. It mirrors the
// MongoStore guard semantics, including the conflict check on transitions.
type MemoryStore struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]models.Issue
	users  map[primitive.ObjectID]models.User
}

// NewMemoryStore constructs an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		issues: make(map[primitive.ObjectID]models.Issue),
		users:  make(map[primitive.ObjectID]models.User),
	}
}

func (m *MemoryStore) InsertIssue(_ context.Context, issue models.Issue) (models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	m.issues[issue.ID] = issue
	return issue, nil
}

func (m *MemoryStore) GetIssue(_ context.Context, id primitive.ObjectID) (models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	issue, ok := m.issues[id]
	if !ok {
		return models.Issue{}, ErrIssueNotFound
	}
	return issue, nil
}

func (m *MemoryStore) ListIssues(_ context.Context) ([]models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	issues := make([]models.Issue, 0, len(m.issues))
	for _, issue := range m.issues {
		issues = append(issues, issue)
	}
	sort.Slice(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
	return issues, nil
}

func (m *MemoryStore) ListIssuesByReporter(_ context.Context, reporterID primitive.ObjectID) ([]models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var issues []models.Issue
	for _, issue := range m.issues {
		if issue.ReporterID == reporterID {
			issues = append(issues, issue)
		}
	}
	sort.Slice(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
	return issues, nil
}

func (m *MemoryStore) ApplyTransition(_ context.Context, id primitive.ObjectID, prev, next models.IssueStatus, awardPoints int) (models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	issue, ok := m.issues[id]
	if !ok {
		return models.Issue{}, ErrIssueNotFound
	}
	if issue.Status != prev {
		return models.Issue{}, ErrConflict
	}
	if awardPoints > 0 && issue.RewardIssued {
		return models.Issue{}, ErrConflict
	}

	now := time.Now()
	issue.Status = next
	issue.UpdatedAt = now
	if awardPoints > 0 {
		issue.RewardIssued = true
		user, ok := m.users[issue.ReporterID]
		if !ok {
			return models.Issue{}, ErrUserNotFound
		}
		user.RewardPoints += awardPoints
		user.UpdatedAt = now
		m.users[user.ID] = user
	}
	m.issues[id] = issue
	return issue, nil
}

func (m *MemoryStore) InsertUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return models.User{}, ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUser(_ context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (m *MemoryStore) UpdateUserProfile(_ context.Context, id primitive.ObjectID, update ProfileUpdate) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Address != nil {
		user.Address = *update.Address
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return user, nil
}

func (m *MemoryStore) ListUsersByRole(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []models.User
	for _, user := range m.users {
		if user.Role == role {
			users = append(users, user)
		}
	}
	return users, nil
}
