package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/config"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{DB: db, logger: logger}, nil
}

// Wrap adopts an already-open pool. Used by tests and tools that manage the *sql.DB themselves.
func Wrap(db *sql.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema creates the CRM tables read by the live data service
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS hcps (
			id VARCHAR(32) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			specialty VARCHAR(100) NOT NULL,
			organization VARCHAR(255) NOT NULL,
			city VARCHAR(100) NOT NULL,
			state VARCHAR(2) NOT NULL,
			npi_number VARCHAR(10) NOT NULL UNIQUE,
			priority_score INTEGER NOT NULL DEFAULT 0,
			total_opportunity DECIMAL(12, 2) NOT NULL DEFAULT 0,
			last_visit_date TIMESTAMP,
			next_visit_scheduled TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS hcp_meal_spend (
			id BIGSERIAL PRIMARY KEY,
			hcp_id VARCHAR(32) NOT NULL REFERENCES hcps(id) ON DELETE CASCADE,
			amount DECIMAL(10, 2) NOT NULL CHECK (amount >= 0),
			occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_hcps_priority ON hcps(priority_score DESC);
		CREATE INDEX IF NOT EXISTS idx_hcp_meal_spend_hcp_time ON hcp_meal_spend(hcp_id, occurred_at);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
