package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courseforge/internal/config"
	"courseforge/internal/database"
	"courseforge/internal/handlers"
	"courseforge/internal/models"
	"courseforge/internal/repository"
	"courseforge/internal/security"
	"courseforge/internal/service"
	"courseforge/internal/token"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Token codec
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        "courseforge",
	})
	if err != nil {
		log.Fatalf("Failed to initialize token codec: %v", err)
	}

	// Collaborators
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	storageService, err := service.NewStorageService(cfg.AWSRegion, cfg.S3Bucket, cfg.S3BaseEndpoint,
		cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PublicURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	moduleRepo := repository.NewModuleRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, codec, emailService, cfg.ActionTokenTTL)
	userService := service.NewUserService(userRepo, storageService)
	courseService := service.NewCourseService(courseRepo, storageService)
	moduleService := service.NewModuleService(moduleRepo, courseRepo)

	// Handlers and middleware. Credential endpoints share one IP-keyed limiter.
	limiter := security.NewRateLimiter(10, time.Minute)
	mw := handlers.NewMiddleware(codec, userRepo, limiter)

	secure := cfg.IsProduction()
	authHandler := handlers.NewAuthHandler(authService, secure)
	userHandler := handlers.NewUserHandler(userService, cfg.UploadMaxSize)
	courseHandler := handlers.NewCourseHandler(courseService, cfg.UploadMaxSize)
	moduleHandler := handlers.NewModuleHandler(moduleService)
	oauthHandler := handlers.NewOAuthHandler(authService, handlers.OAuthConfig{
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		RedirectBase:       cfg.OAuthRedirectBase,
		AppBaseURL:         cfg.AppBaseURL,
	}, secure)

	mux := http.NewServeMux()

	// User and session routes
	mux.HandleFunc("POST /api/v1/users/register", mw.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/v1/users/login", mw.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/v1/users/logout", mw.RequireAuth(authHandler.Logout))
	mux.HandleFunc("POST /api/v1/users/refresh-token", authHandler.RefreshToken)
	mux.HandleFunc("GET /api/v1/users/verify-email/{token}", mw.RequireAuth(authHandler.VerifyEmail))
	mux.HandleFunc("POST /api/v1/users/resend-email-verification", mw.RequireAuth(authHandler.ResendEmailVerification))
	mux.HandleFunc("POST /api/v1/users/change-password", mw.RequireAuth(authHandler.ChangePassword))
	mux.HandleFunc("POST /api/v1/users/assign-role/{userId}", mw.RequireRole(models.RoleAdmin, authHandler.AssignRole))
	mux.HandleFunc("POST /api/v1/users/forgot-password", mw.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("POST /api/v1/users/forgot-password/{token}", authHandler.ResetPassword)
	mux.HandleFunc("GET /api/v1/users/me", mw.RequireAuth(userHandler.Me))
	mux.HandleFunc("PATCH /api/v1/users/profile", mw.RequireAuth(userHandler.UpdateProfile))
	mux.HandleFunc("POST /api/v1/users/avatar", mw.RequireAuth(userHandler.UpdateAvatar))
	mux.HandleFunc("GET /api/v1/users/oauth/{provider}/start", oauthHandler.Start)
	mux.HandleFunc("GET /api/v1/users/oauth/{provider}/callback", oauthHandler.Callback)

	// Course routes
	mux.HandleFunc("POST /api/v1/courses", mw.RequireAuth(courseHandler.Create))
	mux.HandleFunc("GET /api/v1/courses", courseHandler.List)
	mux.HandleFunc("GET /api/v1/courses/{id}", courseHandler.Get)
	mux.HandleFunc("PATCH /api/v1/courses/{id}", mw.RequireAuth(courseHandler.Update))
	mux.HandleFunc("DELETE /api/v1/courses/{id}", mw.RequireAuth(courseHandler.Delete))
	mux.HandleFunc("PATCH /api/v1/courses/{id}/publish", mw.RequireAuth(courseHandler.TogglePublish))
	mux.HandleFunc("POST /api/v1/courses/{id}/thumbnail", mw.RequireAuth(courseHandler.UpdateThumbnail))

	// Module routes
	mux.HandleFunc("POST /api/v1/courses/{id}/modules", mw.RequireAuth(moduleHandler.Add))
	mux.HandleFunc("GET /api/v1/courses/{id}/modules", moduleHandler.List)
	mux.HandleFunc("PATCH /api/v1/courses/{id}/modules/{moduleId}", mw.RequireAuth(moduleHandler.Update))
	mux.HandleFunc("DELETE /api/v1/courses/{id}/modules/{moduleId}", mw.RequireAuth(moduleHandler.Delete))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
