package routes

import (
	"sustainhub-be/controllers"
	"sustainhub-be/middlewares"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the user profile and leaderboard routes
func UserRoutes(r *gin.Engine, uc *controllers.UserController) {
	user := r.Group("/api/users")
	user.Use(middlewares.AuthMiddleware())
	{
		user.GET("/profile", uc.GetProfile)
		user.PUT("/profile", uc.UpdateProfile)
		user.GET("/leaderboard", uc.GetLeaderboard)
		user.GET("/leaderboard/:page", uc.GetLeaderboard)
		user.GET("/:id", uc.GetUserByID)
	}
}
