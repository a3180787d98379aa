package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"accounts-api/internal/cache"
	"accounts-api/internal/config"
	"accounts-api/internal/controllers"
	"accounts-api/internal/database"
	"accounts-api/internal/entities"
	"accounts-api/internal/jwt"
	"accounts-api/internal/mail"
	"accounts-api/internal/middleware"
	"accounts-api/internal/password"
	"accounts-api/internal/repository"
	"accounts-api/internal/service"
	"accounts-api/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	var cacheClient cache.Cache
	cacheClient, err = cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis (%v). Continuing without cache.", err)
		cacheClient = nil
	} else {
		log.Println("Connected to Redis cache")
	}

	// Initialize mail sender
	mailer, err := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	if err != nil {
		log.Fatalf("Failed to initialize mail sender: %v", err)
	}

	// Initialize repository and shared collaborators
	userRepo := repository.NewUserRepository(db)
	hasher := password.NewBcryptHasher(0)
	fileStorage := storage.NewFileStorage(cfg.StorageDir)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTTTL)*time.Hour,
	)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, hasher, mailer, cfg.FrontendURL)
	userService := service.NewUserService(userRepo, hasher, cacheClient)

	// Initialize controllers
	authController := controllers.NewAuthController(authService)
	userController := controllers.NewUserController(userService)
	fileController := controllers.NewFileController(fileStorage)

	// Initialize rate limiters
	generalRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	authRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitAuthRPS), cfg.RateLimitAuthBurst)

	// Access guard shared by every protected route
	authGuard := middleware.AuthMiddleware(jwtService, userRepo, cacheClient)

	// Create a Gin router
	router := gin.Default()

	// Health check endpoint (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API v1 routes group with general rate limiting
	api := router.Group("/api/v1")
	api.Use(generalRateLimiter.LimitMiddleware())
	{
		// Auth routes with stricter rate limiting
		auth := api.Group("/auth")
		auth.Use(authRateLimiter.LimitMiddleware())
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
			auth.POST("/forget", authController.Forget)
			auth.POST("/reset", authController.Reset)

			// Routes below require a bearer token
			auth.POST("/me", authGuard, authController.Me)
			auth.POST("/photo", authGuard, fileController.UploadPhoto)
			auth.POST("/files", authGuard, fileController.UploadFiles)
			auth.POST("/files-fields", authGuard, fileController.UploadFilesFields)
		}

		// User CRUD - bearer token plus the admin role
		users := api.Group("/users")
		users.Use(authGuard, middleware.RequireRoles(entities.RoleAdmin))
		{
			users.POST("", userController.Create)
			users.GET("", userController.List)
			users.GET("/:id", userController.Show)
			users.PUT("/:id", userController.Update)
			users.PATCH("/:id", userController.UpdatePartial)
			users.DELETE("/:id", userController.Delete)
		}
	}

	log.Printf("Server starting on http://localhost:%s", cfg.Port)
	router.Run(":" + cfg.Port)
}
