package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"sustainhub-be/config"
	"sustainhub-be/controllers"
	"sustainhub-be/routes"
	"sustainhub-be/services"
	"sustainhub-be/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const issueCreateLimitPerDay = 20

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}
	log.Println("MongoDB connection established successfully!")

	config.ConnectRedis()

	issueStore := store.NewMongoStore(config.GetClient(), db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := issueStore.EnsureIndexes(ctx); err != nil {
		log.Printf("Failed to create indexes: %v", err)
	}
	cancel()

	workflow := services.NewWorkflowService(issueStore)
	leaderboard := services.NewLeaderboardService(issueStore)

	authController := controllers.NewAuthController(issueStore)
	issueController := controllers.NewIssueController(workflow, issueStore)
	userController := controllers.NewUserController(issueStore, leaderboard)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	routes.AuthRoutes(r, authController)
	routes.UserRoutes(r, userController)
	routes.IssueRoutes(r, issueController, issueCreateLimitPerDay)

	r.GET("/api/health", func(c *gin.Context) {
		healthy := config.Healthy(c.Request.Context())
		status := http.StatusOK
		state := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"message":   "SustainHub Backend is running!",
			"status":    state,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func allowedOrigins() []string {
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		return strings.Split(origins, ",")
	}
	return []string{"http://localhost:3000", "http://127.0.0.1:3000"}
}
