package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/crucible-ai/crucible/internal/metrics"
)

// SQLStore is the document-style backend: one records table keyed by the
// namespaced key, with payload and expiry columns. Supported drivers are
// "postgres" and "sqlite3". Expired rows are skipped on read and removed by
// a periodic sweep.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	logger *zap.Logger
	ttl    time.Duration
	stopCh chan struct{}
}

// SQLConfig holds connection settings for the SQL backend.
type SQLConfig struct {
	Driver string // "postgres" or "sqlite3"
	DSN    string
	TTL    time.Duration

	MaxConnections  int
	IdleConnections int
	SweepInterval   time.Duration
}

const sqlSchema = `
CREATE TABLE IF NOT EXISTS records (
	key        TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	expires_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_kind ON records (kind);
CREATE INDEX IF NOT EXISTS idx_records_expires ON records (expires_at);
`

// NewSQLStore opens the database, ensures the schema, and starts the
// expiry sweeper.
func NewSQLStore(cfg SQLConfig, logger *zap.Logger) (*SQLStore, error) {
	if cfg.Driver != "postgres" && cfg.Driver != "sqlite3" {
		return nil, fmt.Errorf("unsupported sql driver: %q", cfg.Driver)
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 25
	}
	if cfg.IdleConnections == 0 {
		cfg.IdleConnections = 5
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 10 * time.Minute
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.IdleConnections)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &SQLStore{
		db:     db,
		driver: cfg.Driver,
		logger: logger,
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}
	go s.sweepLoop(cfg.SweepInterval)

	logger.Info("SQL store initialized",
		zap.String("driver", cfg.Driver),
		zap.Duration("ttl", ttl),
	)
	return s, nil
}

// Set upserts the record under key with the given TTL.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	expires := time.Now().UTC().Add(ttl)

	query := s.rebind(`INSERT INTO records (key, kind, payload, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET payload = ?, expires_at = ?`)
	_, err := s.db.ExecContext(ctx, query, key, kindOf(key), string(value), expires, string(value), expires)
	s.record("set", err == nil)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Get returns the value for key, or ErrNotFound. Expired rows are treated
// as absent.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row struct {
		Payload   string    `db:"payload"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	query := s.rebind(`SELECT payload, expires_at FROM records WHERE key = ?`)
	err := s.db.GetContext(ctx, &row, query, key)
	if err == sql.ErrNoRows {
		s.record("get", true)
		return nil, ErrNotFound
	} else if err != nil {
		s.record("get", false)
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	s.record("get", true)

	if time.Now().UTC().After(row.ExpiresAt) {
		return nil, ErrNotFound
	}
	return []byte(row.Payload), nil
}

// ScanByPrefix returns all live keys with the given prefix.
func (s *SQLStore) ScanByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	query := s.rebind(`SELECT key FROM records WHERE key LIKE ? AND expires_at > ?`)
	err := s.db.SelectContext(ctx, &keys, query, prefix+"%", time.Now().UTC())
	s.record("scan", err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}
	return keys, nil
}

// Ping verifies the backend is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close stops the sweeper and closes the pool.
func (s *SQLStore) Close() error {
	close(s.stopCh)
	return s.db.Close()
}

func (s *SQLStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			query := s.rebind(`DELETE FROM records WHERE expires_at <= ?`)
			res, err := s.db.ExecContext(ctx, query, time.Now().UTC())
			cancel()
			if err != nil {
				s.logger.Warn("Expiry sweep failed", zap.Error(err))
				continue
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				s.logger.Debug("Swept expired records", zap.Int64("count", n))
			}
		case <-s.stopCh:
			return
		}
	}
}

// rebind converts ? placeholders to the driver's style.
func (s *SQLStore) rebind(query string) string {
	return s.db.Rebind(query)
}

func (s *SQLStore) record(op string, success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	metrics.StoreOperations.WithLabelValues(s.driver, op, status).Inc()
}

// kindOf extracts the namespace prefix from a key ("session:" from
// "session:abc"). Unprefixed keys get kind "unknown".
func kindOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i+1]
	}
	return "unknown"
}
