// Package database provides source connection management for docschema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dbsmedya/docschema/internal/config"
)

const (
	defaultMaxRetries = 3
	appName           = "docschema"
)

// Manager handles the connection to the configured document source.
// Exactly one of SQL or Mongo is set after Connect, depending on the driver.
type Manager struct {
	SQL    *sql.DB
	Mongo  *mongo.Client
	config *config.Config

	maxRetries int
	backoff    time.Duration
	openSQL    func(cfg *config.SourceConfig) (*sql.DB, error)
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:     cfg,
		maxRetries: defaultMaxRetries,
		backoff:    time.Second,
		openSQL:    openMySQL,
	}
}

// Connect establishes the source connection for the configured driver.
// The file driver needs no connection and returns immediately.
func (m *Manager) Connect(ctx context.Context) error {
	src := &m.config.Source

	switch src.Driver {
	case config.DriverMySQL:
		db, err := m.connectSQLWithRetry(ctx, src)
		if err != nil {
			return fmt.Errorf("failed to connect to mysql source: %w", err)
		}
		m.SQL = db
	case config.DriverMongoDB:
		client, err := m.connectMongoWithRetry(ctx, src)
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb source: %w", err)
		}
		m.Mongo = client
	case config.DriverFile:
	default:
		return fmt.Errorf("unsupported source driver %q", src.Driver)
	}

	return nil
}

// connectSQLWithRetry attempts to connect with exponential backoff.
func (m *Manager) connectSQLWithRetry(ctx context.Context, cfg *config.SourceConfig) (*sql.DB, error) {
	var db *sql.DB
	err := m.retry(ctx, func() error {
		conn, err := m.openSQL(cfg)
		if err != nil {
			return err
		}
		if pingErr := conn.PingContext(ctx); pingErr != nil {
			conn.Close()
			return pingErr
		}
		db = conn
		return nil
	})
	return db, err
}

// connectMongoWithRetry attempts to connect with exponential backoff.
func (m *Manager) connectMongoWithRetry(ctx context.Context, cfg *config.SourceConfig) (*mongo.Client, error) {
	var client *mongo.Client
	err := m.retry(ctx, func() error {
		c, err := mongo.Connect(MongoClientOptions(cfg))
		if err != nil {
			return err
		}
		if pingErr := c.Ping(ctx, nil); pingErr != nil {
			_ = c.Disconnect(context.Background())
			return pingErr
		}
		client = c
		return nil
	})
	return client, err
}

// retry runs attempt up to maxRetries times, doubling the wait between tries.
func (m *Manager) retry(ctx context.Context, attempt func() error) error {
	var err error
	backoff := m.backoff

	for i := 0; i < m.maxRetries; i++ {
		if err = attempt(); err == nil {
			return nil
		}

		if i < m.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", m.maxRetries, err)
}

// openMySQL creates a database connection.
func openMySQL(cfg *config.SourceConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", BuildDSN(cfg))
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs a MySQL DSN from configuration.
func BuildDSN(cfg *config.SourceConfig) string {
	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
	)

	if cfg.Database != "" {
		dsn += cfg.Database
	}

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// BuildMongoURI constructs a connection string from configuration.
// An explicit URI always wins over host/port/user settings.
func BuildMongoURI(cfg *config.SourceConfig) string {
	if cfg.URI != "" {
		return cfg.URI
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/",
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	q := url.Values{}
	if cfg.Database != "" && cfg.User != "" {
		q.Set("authSource", cfg.Database)
	}
	switch cfg.TLS {
	case "required":
		q.Set("tls", "true")
	case "disable":
		q.Set("tls", "false")
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// MongoClientOptions builds driver options for the source.
func MongoClientOptions(cfg *config.SourceConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(BuildMongoURI(cfg)).
		SetAppName(appName).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	if cfg.MaxConnections > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxConnections))
	}
	if cfg.MaxIdleConnections > 0 {
		opts.SetMinPoolSize(uint64(cfg.MaxIdleConnections))
	}
	return opts
}

// Close closes the source connection gracefully.
func (m *Manager) Close() error {
	var errs []error

	if m.SQL != nil {
		if err := m.SQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("mysql close: %w", err))
		}
	}

	if m.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing connections: %v", errs)
	}
	return nil
}

// Ping verifies the source connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.SQL != nil {
		if err := m.SQL.PingContext(ctx); err != nil {
			return fmt.Errorf("mysql ping failed: %w", err)
		}
	}

	if m.Mongo != nil {
		if err := m.Mongo.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongodb ping failed: %w", err)
		}
	}

	return nil
}
