package tasks

import (
	"context"
	"fmt"
	"log"

	domain "github.com/Rahim-U/horizon-labs-assessment/domain/task"
	"github.com/Rahim-U/horizon-labs-assessment/modules/cache"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module provides task services as a mono module.
type Module struct {
	db          *gorm.DB
	repo        *Repository
	service     *Service
	cache       *cache.Cache
	cacheModule *cache.Module
	dbPath      string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new task module backed by the SQLite database at dbPath.
func NewModule(dbPath string) *Module {
	return &Module{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "tasks"
}

// SetCache sets the cache instance for the module. Must be called before Start.
func (m *Module) SetCache(c *cache.Cache) {
	m.cache = c
}

// SetCacheModule wires the cache module. The cache instance is resolved
// during Start, so the cache module must be registered (and thus started)
// before this one.
func (m *Module) SetCacheModule(cm *cache.Module) {
	m.cacheModule = cm
}

// Start initializes the database and creates the service.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Task{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.repo = NewRepository(db)

	c := m.cache
	if c == nil && m.cacheModule != nil {
		c = m.cacheModule.GetCache()
	}
	if c == nil {
		c = cache.New(nil, "", 0)
	}
	m.service = NewService(m.repo, c)

	log.Printf("[tasks] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop stops the module and closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[tasks] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// Service returns the task service. Only valid after Start.
func (m *Module) Service() *Service {
	return m.service
}
