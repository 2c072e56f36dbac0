package routes

import (
	"sustainhub-be/controllers"
	"sustainhub-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, issueCreateLimit int) {
	issue := r.Group("/api/issues")
	issue.Use(middlewares.AuthMiddleware())
	{
		issue.POST("", middlewares.IssueRateLimiter(issueCreateLimit), ic.CreateIssue)
		issue.GET("/user/my-issues", ic.GetMyIssues)
		issue.GET("/:id", ic.GetIssue)

		admin := issue.Group("/admin", middlewares.AdminMiddleware())
		{
			admin.GET("/all", ic.GetAllIssues)
			admin.GET("/map", ic.GetMapClusters)
		}
		issue.PUT("/:id/status", middlewares.AdminMiddleware(), ic.UpdateIssueStatus)
	}
}
