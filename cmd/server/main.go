package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"muvserver/internal/config"
	"muvserver/internal/content"
	"muvserver/internal/database"
	"muvserver/internal/handlers"
	"muvserver/internal/jobs"
	"muvserver/internal/kernel"
	"muvserver/internal/logging"
	"muvserver/internal/middleware"
	"muvserver/internal/plugins"
	"muvserver/internal/services"
	"muvserver/internal/store"
	"muvserver/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Muv Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Initialize database (MySQL DSN or SQLite file path)
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	log.Printf("✅ Database ready (driver: %s)", db.Driver())

	// Initialize Redis (optional - for daily usage counters)
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Failed to connect to Redis: %v (usage limits fall back to in-process)", err)
			redisService = nil
		}
	} else {
		log.Println("⚠️  REDIS_URL not set, usage limits use in-process counters")
	}
	if redisService != nil {
		defer redisService.Close()
	}

	// Load the content bank (embedded, with optional file override)
	library, err := content.NewLibrary()
	if err != nil {
		log.Fatalf("❌ Failed to load content bank: %v", err)
	}
	if cfg.ContentBankPath != "" {
		if err := library.LoadFile(cfg.ContentBankPath); err != nil {
			log.Fatalf("❌ Failed to load content bank from %s: %v", cfg.ContentBankPath, err)
		}
		if err := library.Watch(cfg.ContentBankPath); err != nil {
			log.Printf("⚠️  Content bank hot reload unavailable: %v", err)
		} else {
			log.Printf("✅ Content bank loaded from %s (hot reload enabled)", cfg.ContentBankPath)
		}
		defer library.Close()
	}

	// Wire the kernel, plugins and services
	st := store.NewSQL(db)
	masteryEngine := kernel.NewMasteryEngine(st)
	recorder := kernel.NewEvidenceRecorder(st)
	detector := kernel.NewWeakPointDetector(st)

	quizPlugin := plugins.NewQuizPlugin(st, library, masteryEngine, recorder)
	gamePlugin := plugins.NewGamePlugin(st, library, masteryEngine, recorder)
	searchPlugin := plugins.NewSearchIngestionPlugin(library, recorder)

	var redisClient *redis.Client
	if redisService != nil {
		redisClient = redisService.Client()
	}
	usageLimiter := services.NewUsageLimiterService(redisClient, int64(cfg.OrchestrateDailyCap))
	snapshots := services.NewSnapshotService(st)
	orchestrator := services.NewOrchestrator(st, recorder, quizPlugin, gamePlugin, searchPlugin)

	// Optional JWT auth; without a secret the API runs open
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, 0, 0)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ JWT auth enabled")
	} else {
		log.Println("⚠️  JWT_SECRET not set, API runs without authentication")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Muv Server v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // transcripts and quiz payloads are small
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("muvserver")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Load rate limiting configuration
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Orchestrate=%d/min, Write=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.OrchestrateMax,
		rateLimitConfig.WriteMax,
	)

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Global API rate limiter - first line of defense
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	orchestrateHandler := handlers.NewOrchestrateHandler(orchestrator, usageLimiter, snapshots)
	quizHandler := handlers.NewQuizHandler(quizPlugin, snapshots)
	gameHandler := handlers.NewGameHandler(gamePlugin, snapshots)
	signalsHandler := handlers.NewSignalsHandler(detector, snapshots)
	learnerHandler := handlers.NewLearnerHandler(st, snapshots)
	curriculumHandler := handlers.NewCurriculumHandler(st, snapshots)
	pinHandler := handlers.NewPinHandler(st, snapshots)
	eventHandler := handlers.NewEventHandler(st)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api",
		middleware.LearnerAuthMiddleware(jwtAuth),
		middleware.LearnerScopeMiddleware(),
	)

	api.Post("/orchestrate", middleware.OrchestrateRateLimiter(rateLimitConfig), orchestrateHandler.Handle)

	writeLimiter := middleware.WriteRateLimiter(rateLimitConfig)
	api.Post("/quiz/create", writeLimiter, quizHandler.Create)
	api.Post("/quiz/grade", writeLimiter, quizHandler.Grade)
	api.Post("/game/generate", writeLimiter, gameHandler.Generate)
	api.Post("/game/outcome", writeLimiter, gameHandler.Outcome)
	api.Post("/signals", writeLimiter, signalsHandler.Detect)

	api.Get("/learner", learnerHandler.Get)
	api.Put("/learner/:id", writeLimiter, learnerHandler.Update)
	api.Get("/learner/:id/snapshot", learnerHandler.Snapshot)

	api.Get("/concepts", curriculumHandler.ListConcepts)
	api.Get("/courses", curriculumHandler.ListCourses)
	api.Get("/course-runs", curriculumHandler.ListCourseRuns)
	api.Put("/course-runs/:id", writeLimiter, curriculumHandler.UpdateCourseRun)
	api.Get("/mastery", curriculumHandler.ListMastery)
	api.Get("/weak-points", curriculumHandler.ListWeakPoints)
	api.Put("/weak-points/:id/resolve", writeLimiter, curriculumHandler.ResolveWeakPoint)
	api.Get("/evidence", curriculumHandler.ListEvidence)
	api.Get("/portfolio", curriculumHandler.ListPortfolio)

	api.Get("/pins", pinHandler.List)
	api.Post("/pins", writeLimiter, pinHandler.Create)
	api.Put("/pins/:id/resolve", writeLimiter, pinHandler.Resolve)

	api.Get("/events", eventHandler.List)
	api.Post("/events/sync", writeLimiter, eventHandler.Sync)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.JobsEnabled {
		scheduler, err = jobs.NewScheduler()
		if err != nil {
			log.Fatalf("❌ Failed to create job scheduler: %v", err)
		}
		if err := scheduler.Register("course_run_progress", cfg.ProgressJobCron, jobs.NewCourseRunProgressJob(st)); err != nil {
			log.Fatalf("❌ Failed to register progress job: %v", err)
		}
		scheduler.Start()
	} else {
		log.Println("⚠️  Background jobs disabled")
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if scheduler != nil {
			scheduler.Stop()
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
