package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"sustainhub-be/services"
	"sustainhub-be/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserController struct {
	Store       store.Store
	Leaderboard *services.LeaderboardService
}

func NewUserController(s store.Store, leaderboard *services.LeaderboardService) *UserController {
	return &UserController{Store: s, Leaderboard: leaderboard}
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(c *gin.Context) {
	userID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := uc.Store.GetUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's editable profile fields
func (uc *UserController) UpdateProfile(c *gin.Context) {
	userID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var input struct {
		FirstName *string `json:"firstName,omitempty"`
		LastName  *string `json:"lastName,omitempty"`
		Address   *string `json:"address,omitempty"`
		Phone     *string `json:"phone,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := uc.Store.UpdateUserProfile(ctx, userID, store.ProfileUpdate{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Address:   input.Address,
		Phone:     input.Phone,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUserByID retrieves a user by ID (admin dashboards link to reporters)
func (uc *UserController) GetUserByID(c *gin.Context) {
	idParam := c.Param("id")
	userID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := uc.Store.GetUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetLeaderboard returns one page of the reward-point ranking
func (uc *UserController) GetLeaderboard(c *gin.Context) {
	page := 1
	if pageParam := c.Param("page"); pageParam != "" {
		if parsed, err := strconv.Atoi(pageParam); err == nil && parsed > 0 {
			page = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ranking, err := uc.Leaderboard.Rank(ctx, page, services.DefaultPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve leaderboard"})
		return
	}

	users := make([]gin.H, 0, len(ranking.Entries))
	for _, entry := range ranking.Entries {
		users = append(users, gin.H{
			"id":        entry.User.ID,
			"firstName": entry.User.FirstName,
			"lastName":  entry.User.LastName,
			"rewards":   entry.User.RewardPoints,
			"rank":      entry.Rank,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"currentPage":     ranking.CurrentPage,
			"totalPages":      ranking.TotalPages,
			"totalUsers":      ranking.TotalUsers,
			"hasNextPage":     ranking.HasNext,
			"hasPreviousPage": ranking.HasPrev,
		},
	})
}
