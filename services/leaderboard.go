package services

import (
	"context"
	"sort"

	"sustainhub-be/models"
	"sustainhub-be/store"
)

// DefaultPageSize is the leaderboard page size.
const DefaultPageSize = 10

// LeaderboardEntry pairs a user with their 1-based position in the full
// ordering, independent of the requested page window.
type LeaderboardEntry struct {
	User models.User
	Rank int
}

// LeaderboardPage is one window of the ranked ordering.
type LeaderboardPage struct {
	Entries     []LeaderboardEntry
	CurrentPage int
	TotalPages  int
	TotalUsers  int
	HasNext     bool
	HasPrev     bool
}

// RankUsers orders users by reward points descending, ties broken by
// createdAt ascending (earlier joiners rank higher), then returns the
// requested window. Pure: the input slice is not modified.
func RankUsers(users []models.User, page, pageSize int) LeaderboardPage {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	ordered := make([]models.User, len(users))
	copy(ordered, users)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RewardPoints != ordered[j].RewardPoints {
			return ordered[i].RewardPoints > ordered[j].RewardPoints
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	totalUsers := len(ordered)
	totalPages := (totalUsers + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > totalUsers {
		start = totalUsers
	}
	if end > totalUsers {
		end = totalUsers
	}

	entries := make([]LeaderboardEntry, 0, end-start)
	for i := start; i < end; i++ {
		entries = append(entries, LeaderboardEntry{User: ordered[i], Rank: i + 1})
	}

	return LeaderboardPage{
		Entries:     entries,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalUsers:  totalUsers,
		HasNext:     page < totalPages,
		HasPrev:     page > 1 && totalUsers > 0,
	}
}

// LeaderboardService ranks USER-role accounts by reward points. Each call
// reads fresh from the store; no ranking is cached, so the result always
// reflects the latest credits.
type LeaderboardService struct {
	store store.Store
}

func NewLeaderboardService(s store.Store) *LeaderboardService {
	return &LeaderboardService{store: s}
}

// Rank returns the requested leaderboard page over all USER-role accounts.
func (s *LeaderboardService) Rank(ctx context.Context, page, pageSize int) (LeaderboardPage, error) {
	users, err := s.store.ListUsersByRole(ctx, models.RoleUser)
	if err != nil {
		return LeaderboardPage{}, err
	}
	return RankUsers(users, page, pageSize), nil
}
