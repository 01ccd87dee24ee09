package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhankey2000/auto-post/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the process-wide connection opened by Initialize
var DB *gorm.DB

// Config selects and configures the database driver
type Config struct {
	Driver     string // "postgres" (default) or "sqlite"
	URL        string // DSN; for sqlite a file path or ":memory:"
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	LogQueries bool
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.driver() == "sqlite" {
		return "autopost.db"
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslmode)
}

func (c Config) driver() string {
	return strings.ToLower(c.Driver)
}

// Open connects with the configured driver and tunes the pool.
func Open(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.driver() {
	case "", "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormLog := gormlogger.Default.LogMode(gormlogger.Warn)
	if cfg.LogQueries {
		gormLog = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.driver() == "sqlite" || cfg.driver() == "sqlite3" {
		// One connection: every sqlite connection to ":memory:" is its own database.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

// Initialize opens the connection and stores it in DB
func Initialize(cfg Config, log *zap.Logger) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	if log != nil {
		log.Info("Database connected", zap.String("driver", cfg.Driver))
	}
	return nil
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := db.AutoMigrate(
		&models.PlatformAccount{},
		&models.Post{},
		&models.MetricPoint{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return createIndexes(db)
}

func createIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_posts_account_status ON posts (platform_account_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_page_analytics_date ON page_analytics (date)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Close closes the connection stored in DB
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings db
func Health(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
