package db

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotConfigured = errors.New("DATABASE_NOT_CONFIGURED: database pool is not available, check DATABASE_URL and CA file configuration")
	ErrClosed        = errors.New("db: gateway closed")
)

const maxLoggedStatement = 150

type Options struct {
	URL        string
	CACertPath string
	MaxConns   int32
}

// Gateway is the single process-wide entry point to Postgres. The pool is
// built on first use; every later call reuses the outcome of that attempt.
type Gateway struct {
	opts Options

	once sync.Once
	pool *pgxpool.Pool
	err  error
}

func NewGateway(opts Options) *Gateway {
	return &Gateway{opts: opts}
}

func (g *Gateway) init(ctx context.Context) error {
	g.once.Do(func() {
		g.pool, g.err = newPool(context.WithoutCancel(ctx), g.opts)
	})
	return g.err
}

func newPool(ctx context.Context, opts Options) (*pgxpool.Pool, error) {
	if strings.TrimSpace(opts.URL) == "" {
		slog.Warn("DATABASE_URL not set, database queries will fail until it is provided")
		return nil, ErrNotConfigured
	}
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		slog.Error("invalid DATABASE_URL", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	if roots := loadCA(opts.CACertPath); roots != nil {
		applyRootCAs(cfg.ConnConfig, roots)
	}
	cfg.AfterConnect = func(ctx context.Context, _ *pgx.Conn) error {
		slog.Debug("new client connected to database")
		return nil
	}

	slog.Info("initializing database pool (lazy init)", "max_conns", cfg.MaxConns)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		slog.Error("failed to create database pool", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	return pool, nil
}

// loadCA reads an optional PEM bundle. A missing or unreadable file is not
// fatal: the connection falls back to whatever the DSN's sslmode implies.
func loadCA(path string) *x509.CertPool {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("CA file not found, continuing without CA bundle", "path", path)
		} else {
			slog.Error("failed to read CA file", "path", path, "err", err)
		}
		return nil
	}
	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(b) {
		slog.Error("CA file has no valid certificates", "path", path)
		return nil
	}
	slog.Info("CA file loaded", "path", path)
	return roots
}

func applyRootCAs(cc *pgx.ConnConfig, roots *x509.CertPool) {
	set := func(t *tls.Config, host string) *tls.Config {
		if t == nil {
			return &tls.Config{RootCAs: roots, ServerName: host, MinVersion: tls.VersionTLS12}
		}
		t.RootCAs = roots
		return t
	}
	cc.TLSConfig = set(cc.TLSConfig, cc.Host)
	for _, fb := range cc.Fallbacks {
		fb.TLSConfig = set(fb.TLSConfig, fb.Host)
	}
}

func (g *Gateway) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if err := g.init(ctx); err != nil {
		return nil, err
	}
	logStatement(sql, len(args))
	rows, err := g.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, queryFailed(sql, len(args), err)
	}
	return rows, nil
}

func (g *Gateway) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if err := g.init(ctx); err != nil {
		return errRow{err: err}
	}
	logStatement(sql, len(args))
	return loggedRow{row: g.pool.QueryRow(ctx, sql, args...), sql: sql, params: len(args)}
}

func (g *Gateway) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if err := g.init(ctx); err != nil {
		return pgconn.CommandTag{}, err
	}
	logStatement(sql, len(args))
	tag, err := g.pool.Exec(ctx, sql, args...)
	if err != nil {
		return tag, queryFailed(sql, len(args), err)
	}
	return tag, nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.init(ctx); err != nil {
		return err
	}
	return g.pool.Ping(ctx)
}

// Close releases the pool. After Close no new pool is ever built.
func (g *Gateway) Close() {
	g.once.Do(func() { g.err = ErrClosed })
	if g.pool != nil {
		g.pool.Close()
		slog.Info("database pool closed")
	}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

type loggedRow struct {
	row    pgx.Row
	sql    string
	params int
}

func (r loggedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return queryFailed(r.sql, r.params, err)
}

// QueryError carries the storage-native diagnostics of a failed statement.
type QueryError struct {
	Code       string
	Constraint string
	Statement  string
	Params     int
	At         time.Time
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("[DB-ERROR-%s] %v", e.Code, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func queryFailed(sql string, params int, err error) error {
	qe := &QueryError{
		Code:      "UNKNOWN",
		Statement: truncate(sql, maxLoggedStatement),
		Params:    params,
		At:        time.Now().UTC(),
		Err:       err,
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		qe.Code = pgErr.Code
		qe.Constraint = pgErr.ConstraintName
	}
	slog.Error("database error: sql query failed",
		"code", qe.Code,
		"constraint", qe.Constraint,
		"query", qe.Statement,
		"param_count", qe.Params,
		"timestamp", qe.At.Format(time.RFC3339Nano),
		"err", err,
	)
	return qe
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) && qe.Code == "23505" {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func logStatement(sql string, params int) {
	slog.Debug("executing query", "query", truncate(sql, 100), "param_count", params)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
