package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	apimod "github.com/Rahim-U/horizon-labs-assessment/modules/api"
	authmod "github.com/Rahim-U/horizon-labs-assessment/modules/auth"
	cachemod "github.com/Rahim-U/horizon-labs-assessment/modules/cache"
	emailmod "github.com/Rahim-U/horizon-labs-assessment/modules/email"
	tasksmod "github.com/Rahim-U/horizon-labs-assessment/modules/tasks"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	dbPath := getEnv("DB_PATH", "./taskmanager.db")
	redisAddr := os.Getenv("REDIS_ADDR")
	httpPort := getEnvInt("HTTP_PORT", 8000)
	corsOrigins := os.Getenv("CORS_ORIGINS")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)

	log.Println("=== Task Management API ===")
	log.Printf("Database: %s", dbPath)
	if redisAddr != "" {
		log.Printf("Redis: %s", redisAddr)
	} else {
		log.Println("Redis: disabled")
	}
	log.Printf("HTTP Port: %d", httpPort)

	// Create modules
	cacheModule := cachemod.NewModule(redisAddr, "taskmanager:", cacheTTL)
	emailModule := emailmod.NewModule()
	authModule := authmod.NewModule(dbPath)
	tasksModule := tasksmod.NewModule(dbPath)
	apiModule := apimod.NewModule(httpPort, corsOrigins)

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Wire module dependencies. References are resolved inside each
	// module's Start, so registration order below matters.
	authModule.SetMailer(emailModule.Mailer())
	tasksModule.SetCacheModule(cacheModule)
	apiModule.SetAuthModule(authModule)
	apiModule.SetTasksModule(tasksModule)

	// The rate limiter shares the cache's Redis deployment but uses its
	// own lightweight client.
	var limiterClient *redis.Client
	if redisAddr != "" {
		limiterClient = redis.NewClient(&redis.Options{
			Addr:         redisAddr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		})
	}
	apiModule.SetRateLimitClient(limiterClient)

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(cacheModule)
	app.Register(emailModule)
	app.Register(authModule)
	app.Register(tasksModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(httpPort)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
			"limiter": func(_ context.Context) error {
				if limiterClient != nil {
					return limiterClient.Close()
				}
				return nil
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("")
	log.Println("  Public Endpoints (rate limited):")
	log.Println("  POST   /auth/register                - Register a new user")
	log.Println("  POST   /auth/login                   - Login (form-encoded) and get tokens")
	log.Println("  POST   /auth/refresh                 - Refresh access token")
	log.Println("  POST   /auth/verify-email            - Verify email address")
	log.Println("  POST   /auth/password-reset          - Request a password reset link")
	log.Println("  POST   /auth/password-reset/confirm  - Reset password with token")
	log.Println("  POST   /auth/resend-verification     - Resend verification email")
	log.Println("  GET    /health                       - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /tasks      - List tasks (filter, search, sort)")
	log.Println("  POST   /tasks      - Create a task")
	log.Println("  GET    /tasks/:id  - Get a task")
	log.Println("  PUT    /tasks/:id  - Update a task")
	log.Println("  DELETE /tasks/:id  - Delete a task")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
