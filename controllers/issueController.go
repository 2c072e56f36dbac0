package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"sustainhub-be/models"
	"sustainhub-be/services"
	"sustainhub-be/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueController struct {
	Workflow *services.WorkflowService
	Store    store.Store
}

func NewIssueController(workflow *services.WorkflowService, s store.Store) *IssueController {
	return &IssueController{Workflow: workflow, Store: s}
}

// actorFromContext resolves the authenticated caller's id and role.
func actorFromContext(c *gin.Context) (primitive.ObjectID, models.Role, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return primitive.NilObjectID, "", false
	}
	objectID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, "", false
	}
	role := models.RoleUser
	if r, exists := c.Get("role"); exists {
		role = models.Role(r.(string))
	}
	return objectID, role, true
}

// CreateIssue handles the creation of a new issue
func (ic *IssueController) CreateIssue(c *gin.Context) {
	reporterID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var input struct {
		Category    string   `json:"category" binding:"required,max=100"`
		Description string   `json:"description" binding:"required,max=1000"`
		Latitude    *float64 `json:"latitude" binding:"required"`
		Longitude   *float64 `json:"longitude" binding:"required"`
		ImageURL    string   `json:"imageUrl" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, err := ic.Workflow.CreateIssue(ctx, reporterID, input.Category, input.Description, *input.Latitude, *input.Longitude, input.ImageURL)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// GetIssue retrieves an issue by its ID with reporter information
func (ic *IssueController) GetIssue(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, err := ic.Workflow.GetIssue(ctx, issueID)
	if err != nil {
		if errors.Is(err, store.ErrIssueNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           issue.ID,
		"category":     issue.Category,
		"description":  issue.Description,
		"latitude":     issue.Latitude,
		"longitude":    issue.Longitude,
		"imageUrl":     issue.ImageURL,
		"status":       issue.Status,
		"rewardIssued": issue.RewardIssued,
		"createdBy":    ic.reporterInfo(ctx, issue.ReporterID),
		"createdAt":    issue.CreatedAt,
		"updatedAt":    issue.UpdatedAt,
	})
}

// GetMyIssues retrieves all issues created by the authenticated user
func (ic *IssueController) GetMyIssues(c *gin.Context) {
	reporterID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issues, err := ic.Workflow.ListByReporter(ctx, reporterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	c.JSON(http.StatusOK, issues)
}

// GetAllIssues retrieves every issue for the admin dashboard
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issues, err := ic.Workflow.ListAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	type issueWithReporter struct {
		models.Issue
		CreatedBy map[string]interface{} `json:"createdBy"`
	}

	response := make([]issueWithReporter, 0, len(issues))
	for _, issue := range issues {
		response = append(response, issueWithReporter{
			Issue:     issue,
			CreatedBy: ic.reporterInfo(ctx, issue.ReporterID),
		})
	}

	c.JSON(http.StatusOK, response)
}

// GetMapClusters returns issue clusters for the admin map at a zoom level
func (ic *IssueController) GetMapClusters(c *gin.Context) {
	zoom, err := strconv.Atoi(c.DefaultQuery("zoom", "5"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid zoom level"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	points, err := ic.Workflow.ListForDisplay(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	clusters := services.ClusterIssues(points, zoom)

	c.JSON(http.StatusOK, gin.H{
		"zoom":     zoom,
		"clusters": clusters,
	})
}

// UpdateIssueStatus drives an issue one step through the review pipeline
func (ic *IssueController) UpdateIssueStatus(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	_, role, ok := actorFromContext(c)
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, err := ic.Workflow.Transition(ctx, issueID, models.IssueStatus(input.Status), role)
	if err != nil {
		var invalidErr *services.InvalidTransitionError
		switch {
		case errors.Is(err, store.ErrIssueNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to change issue status"})
		case errors.Is(err, store.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Issue was updated concurrently, please retry"})
		case errors.As(err, &invalidErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     invalidErr.Error(),
				"current":   invalidErr.Current,
				"requested": invalidErr.Requested,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue status"})
		}
		return
	}

	c.JSON(http.StatusOK, issue)
}

// reporterInfo looks up display fields for the issue's reporter. Lookup
// failures degrade to the bare id, matching how the dashboard renders
// deleted accounts.
func (ic *IssueController) reporterInfo(ctx context.Context, reporterID primitive.ObjectID) map[string]interface{} {
	info := map[string]interface{}{"id": reporterID}
	if user, err := ic.Store.GetUser(ctx, reporterID); err == nil {
		info["firstName"] = user.FirstName
		info["lastName"] = user.LastName
		info["email"] = user.Email
	}
	return info
}
