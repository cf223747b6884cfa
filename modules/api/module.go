package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Rahim-U/horizon-labs-assessment/middleware/ratelimit"
	"github.com/Rahim-U/horizon-labs-assessment/modules/auth"
	"github.com/Rahim-U/horizon-labs-assessment/modules/tasks"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

// Module is the HTTP API module.
type Module struct {
	app          *fiber.App
	authModule   *auth.Module
	tasksModule  *tasks.Module
	authService  *auth.AuthService
	tasksService *tasks.Service
	redisClient  *redis.Client
	port         int
	corsOrigins  string
	authLimit    ratelimit.Config
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new API module listening on the given port.
// corsOrigins is a comma-separated origin list; empty allows the local
// development frontends.
func NewModule(port int, corsOrigins string) *Module {
	return &Module{
		port:        port,
		corsOrigins: corsOrigins,
		authLimit:   loadRateLimitConfig(),
	}
}

// loadRateLimitConfig loads the auth-route rate limit from environment
// variables, falling back to the defaults.
func loadRateLimitConfig() ratelimit.Config {
	config := ratelimit.DefaultConfig()
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Limit = n
		}
	}
	if v := os.Getenv("AUTH_RATE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			config.Window = d
		}
	}
	return config
}

// SetAuthModule wires the auth module. The service is resolved during
// Start, so the auth module must be registered before this one.
func (m *Module) SetAuthModule(am *auth.Module) {
	m.authModule = am
}

// SetTasksModule wires the task module. The service is resolved during
// Start, so the task module must be registered before this one.
func (m *Module) SetTasksModule(tm *tasks.Module) {
	m.tasksModule = tm
}

// SetAuthService wires the auth service directly, bypassing module
// resolution. Used by tests.
func (m *Module) SetAuthService(s *auth.AuthService) {
	m.authService = s
}

// SetTasksService wires the task service directly, bypassing module
// resolution. Used by tests.
func (m *Module) SetTasksService(s *tasks.Service) {
	m.tasksService = s
}

// SetRateLimitClient wires the Redis client used by the auth-route rate
// limiter. A nil client disables limiting.
func (m *Module) SetRateLimitClient(client *redis.Client) {
	m.redisClient = client
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if err := m.buildApp(); err != nil {
		return err
	}

	go func() {
		if err := m.app.Listen(fmt.Sprintf(":%d", m.port)); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%d", m.port)
	return nil
}

// buildApp resolves the wired services and assembles the Fiber
// application without binding a listener.
func (m *Module) buildApp() error {
	if m.authService == nil && m.authModule != nil {
		m.authService = m.authModule.Service()
	}
	if m.tasksService == nil && m.tasksModule != nil {
		m.tasksService = m.tasksModule.Service()
	}
	if m.authService == nil {
		return fmt.Errorf("auth service not set")
	}
	if m.tasksService == nil {
		return fmt.Errorf("tasks service not set")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	origins := m.corsOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	m.app.Use(SecurityHeaders())

	m.setupRoutes()
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// setupRoutes configures all API routes.
func (m *Module) setupRoutes() {
	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	// Auth routes are public but rate limited.
	authRoutes := m.app.Group("/auth")
	authRoutes.Use(ratelimit.New(m.redisClient, m.authLimit))
	authRoutes.Post("/register", m.Register)
	authRoutes.Post("/login", m.Login)
	authRoutes.Post("/refresh", m.Refresh)
	authRoutes.Post("/verify-email", m.VerifyEmail)
	authRoutes.Post("/password-reset", m.RequestPasswordReset)
	authRoutes.Post("/password-reset/confirm", m.ConfirmPasswordReset)
	authRoutes.Post("/resend-verification", m.ResendVerification)

	// Task routes require a valid bearer token.
	taskRoutes := m.app.Group("/tasks")
	taskRoutes.Use(AuthMiddleware(m.authService))
	taskRoutes.Get("/", m.ListTasks)
	taskRoutes.Post("/", m.CreateTask)
	taskRoutes.Get("/:id", m.GetTask)
	taskRoutes.Put("/:id", m.UpdateTask)
	taskRoutes.Delete("/:id", m.DeleteTask)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Detail: message,
	})
}

// App exposes the Fiber app for tests.
func (m *Module) App() *fiber.App {
	return m.app
}
