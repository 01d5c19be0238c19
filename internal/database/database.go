package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lens-catalog/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqliteDriver is go-sqlite3 with unicode_lower registered on every
// connection. SQLite's built-in LOWER only folds ASCII.
const sqliteDriver = "sqlite3_lens_catalog"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

// Store holds the open connection for the configured driver. Gorm is only
// set for the SQLite driver.
type Store struct {
	Driver string
	SQL    *sql.DB
	Gorm   *gorm.DB
}

// Open connects to the database selected by cfg.Driver
func Open(cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(cfg)
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("pgx", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Store{Driver: config.DriverPostgres, SQL: db}, nil
}

// PostgresDSN builds a pgx connection URL with the schema as search_path
func PostgresDSN(cfg config.DatabaseConfig) string {
	query := url.Values{}
	if cfg.SSLMode != "" {
		query.Set("sslmode", cfg.SSLMode)
	}
	if cfg.Schema != "" {
		query.Set("search_path", cfg.Schema)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Database,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// OpenSQLite opens a SQLite database through GORM. Duplicate keys surface
// as gorm.ErrDuplicatedKey and unicode_lower is available to queries.
func OpenSQLite(path string) (*Store, error) {
	dialector := sqlite.New(sqlite.Config{DriverName: sqliteDriver, DSN: path})
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite connection: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	return &Store{Driver: config.DriverSQLite, SQL: db, Gorm: gdb}, nil
}

// Dialect returns the goose dialect for the store's driver
func (s *Store) Dialect() string {
	if s.Driver == config.DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// Health pings the database and reports connection pool statistics
func (s *Store) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	stats := make(map[string]string)
	stats["driver"] = s.Driver

	if err := s.SQL.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	dbStats := s.SQL.Stats()
	stats["status"] = "up"
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)

	return stats
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	return s.SQL.Close()
}
