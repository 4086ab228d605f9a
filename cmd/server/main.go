package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trailpeak/api/internal/config"
	"github.com/trailpeak/api/internal/database"
	"github.com/trailpeak/api/internal/handler"
	"github.com/trailpeak/api/internal/jobs"
	"github.com/trailpeak/api/internal/middleware"
	"github.com/trailpeak/api/internal/repository"
	"github.com/trailpeak/api/internal/service"
	"github.com/trailpeak/api/internal/view"
	"github.com/trailpeak/api/pkg/token"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize token service
	tokenService, err := token.NewService(token.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Expiration: time.Duration(cfg.JWT.ExpirationMins) * time.Minute,
	})
	if err != nil {
		slog.Error("failed to initialize token service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	tourRepo := repository.NewTourRepository(db)
	userRepo := repository.NewUserRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// Initialize services
	mailer := service.NewMailer(service.MailConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})

	authService := service.NewAuthService(service.AuthServiceConfig{
		Users:  userRepo,
		Tokens: tokenService,
		Mail:   mailer,
	})

	tourService := service.NewTourService(tourRepo)
	reviewService := service.NewReviewService(reviewRepo, tourRepo)

	// Review writes recompute the owning tour's rating aggregate
	reviewRepo.SetOnCommit(reviewService.RecalcTourRating)

	bookingService := service.NewBookingService(service.BookingServiceConfig{
		Bookings:   bookingRepo,
		Tours:      tourRepo,
		Gateway:    service.HostedGateway{},
		Verifier:   service.NewWebhookVerifier(cfg.Payment.WebhookSecret),
		Currency:   cfg.Payment.Currency,
		SuccessURL: cfg.Payment.SuccessURL,
		CancelURL:  cfg.Payment.CancelURL,
	})

	imageService, err := service.NewImageService(service.ImageConfig{
		TourDir: cfg.Uploads.TourImageDir,
		UserDir: cfg.Uploads.UserImageDir,
	})
	if err != nil {
		slog.Error("failed to initialize image service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize background jobs
	tokenSweeper := jobs.NewTokenSweeper(userRepo, 15*time.Minute)
	tokenSweeper.Start()
	defer tokenSweeper.Stop()

	// Initialize views and the error writer
	renderer, err := view.NewRenderer()
	if err != nil {
		slog.Error("failed to parse templates", slog.String("error", err.Error()))
		os.Exit(1)
	}
	errs := handler.NewErrorWriter(cfg.IsDevelopment(), renderer)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, errs, tokenService.Expiration())
	tourHandler := handler.NewTourHandler(tourRepo, tourService, imageService, errs)
	userHandler := handler.NewUserHandler(userRepo, imageService, errs)
	reviewHandler := handler.NewReviewHandler(reviewRepo, errs)
	bookingHandler := handler.NewBookingHandler(bookingRepo, bookingService, errs)
	healthHandler := handler.NewHealthHandler(db)
	viewHandler := view.NewHandler(renderer, tourRepo, reviewRepo, bookingRepo)

	// Rate limiting on the API surface
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   100,
		Window: time.Hour,
	})
	defer rateLimiter.Stop()

	protect := middleware.Protect(authService, errs.Write)
	optionalAuth := middleware.OptionalAuth(authService)
	staffOnly := middleware.RestrictTo(errs.Write, "admin", "lead-guide")
	adminOnly := middleware.RestrictTo(errs.Write, "admin")
	usersOnly := middleware.RestrictTo(errs.Write, "user")
	staffAndGuides := middleware.RestrictTo(errs.Write, "admin", "lead-guide", "guide")

	// Create router and register routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", healthHandler.Health)

	// Auth endpoints (public)
	mux.HandleFunc("POST /api/v1/users/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/v1/users/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/users/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/v1/users/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("PATCH /api/v1/users/reset-password/{token}", authHandler.ResetPassword)

	// Account endpoints (protected)
	mux.Handle("PATCH /api/v1/users/update-password", chain(protect)(http.HandlerFunc(authHandler.UpdatePassword)))
	mux.Handle("GET /api/v1/users/me", chain(protect)(http.HandlerFunc(userHandler.GetMe)))
	mux.Handle("PATCH /api/v1/users/update-me", chain(protect)(http.HandlerFunc(userHandler.UpdateMe)))
	mux.Handle("PATCH /api/v1/users/me/photo", chain(protect)(http.HandlerFunc(userHandler.UploadPhoto)))
	mux.Handle("DELETE /api/v1/users/delete-me", chain(protect)(http.HandlerFunc(userHandler.DeleteMe)))

	// User administration (admin only)
	mux.Handle("GET /api/v1/users", chain(protect, adminOnly)(userHandler.GetAll()))
	mux.Handle("GET /api/v1/users/{id}", chain(protect, adminOnly)(userHandler.GetOne()))
	mux.Handle("PATCH /api/v1/users/{id}", chain(protect, adminOnly)(userHandler.UpdateOne()))
	mux.Handle("DELETE /api/v1/users/{id}", chain(protect, adminOnly)(userHandler.DeleteOne()))

	// Tour endpoints
	mux.Handle("GET /api/v1/tours", tourHandler.GetAll())
	mux.Handle("GET /api/v1/tours/top-5-cheap", tourHandler.TopFive())
	mux.HandleFunc("GET /api/v1/tours/stats", tourHandler.Stats)
	mux.Handle("GET /api/v1/tours/monthly-plan/{year}", chain(protect, staffAndGuides)(http.HandlerFunc(tourHandler.MonthlyPlan)))
	mux.HandleFunc("GET /api/v1/tours/tours-within/{distance}/center/{latlng}/unit/{unit}", tourHandler.Within)
	mux.HandleFunc("GET /api/v1/tours/distances/{latlng}/unit/{unit}", tourHandler.Distances)
	mux.Handle("GET /api/v1/tours/{id}", tourHandler.GetOne())
	mux.Handle("POST /api/v1/tours", chain(protect, staffOnly)(tourHandler.CreateOne()))
	mux.Handle("PATCH /api/v1/tours/{id}", chain(protect, staffOnly)(tourHandler.UpdateOne()))
	mux.Handle("PATCH /api/v1/tours/{id}/images", chain(protect, staffOnly)(http.HandlerFunc(tourHandler.UploadImages)))
	mux.Handle("DELETE /api/v1/tours/{id}", chain(protect, staffOnly)(tourHandler.DeleteOne()))

	// Review endpoints, flat and nested under tours
	mux.Handle("GET /api/v1/reviews", chain(protect)(reviewHandler.GetAll()))
	mux.Handle("GET /api/v1/reviews/{id}", chain(protect)(reviewHandler.GetOne()))
	mux.Handle("PATCH /api/v1/reviews/{id}", chain(protect, usersOnly)(reviewHandler.UpdateOne()))
	mux.Handle("DELETE /api/v1/reviews/{id}", chain(protect, usersOnly)(reviewHandler.DeleteOne()))
	mux.Handle("GET /api/v1/tours/{tourId}/reviews", chain(protect)(reviewHandler.GetAll()))
	mux.Handle("POST /api/v1/tours/{tourId}/reviews", chain(protect, usersOnly)(reviewHandler.CreateOne()))

	// Booking endpoints
	mux.HandleFunc("POST /webhook-checkout", bookingHandler.Webhook)
	mux.Handle("GET /api/v1/bookings/checkout-session/{tourId}", chain(protect)(http.HandlerFunc(bookingHandler.Checkout)))
	mux.Handle("GET /api/v1/bookings/me", chain(protect)(http.HandlerFunc(bookingHandler.MyBookings)))
	mux.Handle("GET /api/v1/bookings/{id}/receipt", chain(protect)(http.HandlerFunc(bookingHandler.Receipt)))
	mux.Handle("GET /api/v1/bookings", chain(protect, staffOnly)(bookingHandler.GetAll()))
	mux.Handle("GET /api/v1/bookings/{id}", chain(protect, staffOnly)(bookingHandler.GetOne()))
	mux.Handle("POST /api/v1/bookings", chain(protect, staffOnly)(bookingHandler.CreateOne()))
	mux.Handle("PATCH /api/v1/bookings/{id}", chain(protect, staffOnly)(bookingHandler.UpdateOne()))
	mux.Handle("DELETE /api/v1/bookings/{id}", chain(protect, staffOnly)(bookingHandler.DeleteOne()))

	// Server-rendered site
	mux.Handle("GET /{$}", chain(optionalAuth)(http.HandlerFunc(viewHandler.Overview)))
	mux.Handle("GET /tour/{slug}", chain(optionalAuth)(http.HandlerFunc(viewHandler.Tour)))
	mux.Handle("GET /login", chain(optionalAuth)(http.HandlerFunc(viewHandler.Login)))
	mux.Handle("GET /signup", chain(optionalAuth)(http.HandlerFunc(viewHandler.Signup)))
	mux.Handle("GET /me", chain(optionalAuth)(http.HandlerFunc(viewHandler.Account)))
	mux.Handle("GET /my-tours", chain(optionalAuth)(http.HandlerFunc(viewHandler.MyTours)))

	// Static assets, including uploaded images
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir("./public"))))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter, errs.Write),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// chain composes route-level middlewares
func chain(middlewares ...middleware.Middleware) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return middleware.Chain(h, middlewares...)
	}
}
