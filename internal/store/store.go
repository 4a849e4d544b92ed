// Package store persists callable metadata in a SQL database. SQLite and PostgreSQL
// (through lib/pq or pgx) are supported. A store holds exactly what a manifest holds.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/conduit-lang/optshim/pkg/metadata"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

const (
	typesTable     = "optshim_types"
	callablesTable = "optshim_callables"
	paramsTable    = "optshim_params"
)

// Store reads and writes manifests.
type Store struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// Open connects to the database at dsn with the named driver.
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	if err := ValidateDriver(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	return New(db, driver, logger), nil
}

// New wraps an open database handle.
func New(db *sql.DB, driver string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, driver: driver, logger: logger}
}

// ValidateDriver reports an error for unsupported driver names.
func ValidateDriver(driver string) error {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverPgx:
		return nil
	}
	return fmt.Errorf("unsupported database driver %q (want %s, %s or %s)", driver, DriverSQLite, DriverPostgres, DriverPgx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// placeholders returns n bind parameters in the driver's syntax.
func (s *Store) placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		if s.driver != DriverSQLite {
			ps[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ps[i] = "?"
		}
	}
	return strings.Join(ps, ", ")
}

func (s *Store) insert(table string, columns ...string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(columns, ", "), s.placeholders(len(columns)))
}

// Migrate creates the metadata tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	position INTEGER NOT NULL,
	name TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	underlying TEXT NOT NULL DEFAULT '',
	base TEXT NOT NULL DEFAULT ''
)`, pq.QuoteIdentifier(typesTable)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	position INTEGER NOT NULL,
	name TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	declaring TEXT NOT NULL DEFAULT '',
	static BOOLEAN NOT NULL DEFAULT FALSE,
	return_type TEXT NOT NULL DEFAULT ''
)`, pq.QuoteIdentifier(callablesTable)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	callable TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	optional BOOLEAN NOT NULL DEFAULT FALSE,
	default_kind TEXT,
	default_value TEXT,
	default_type TEXT,
	PRIMARY KEY (callable, position)
)`, pq.QuoteIdentifier(paramsTable)),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate metadata tables: %w", err)
		}
	}
	return nil
}

// Save replaces the stored metadata with m in a single transaction.
func (s *Store) Save(ctx context.Context, m *metadata.Manifest) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Warn("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	for _, table := range []string{paramsTable, callablesTable, typesTable} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insertType := s.insert(typesTable, "position", "name", "kind", "underlying", "base")
	for i, ts := range m.Types {
		if _, err = tx.ExecContext(ctx, insertType, i, ts.Name, ts.Kind, ts.Underlying, ts.Base); err != nil {
			return fmt.Errorf("failed to save type %s: %w", ts.Name, err)
		}
	}

	insertCallable := s.insert(callablesTable, "position", "name", "kind", "declaring", "static", "return_type")
	insertParam := s.insert(paramsTable, "callable", "position", "name", "type", "optional",
		"default_kind", "default_value", "default_type")
	for i, cs := range m.Callables {
		kind := cs.Kind
		if kind == "" {
			kind = "method"
		}
		if _, err = tx.ExecContext(ctx, insertCallable, i, cs.Name, kind, cs.Declaring, cs.Static, cs.Return); err != nil {
			return fmt.Errorf("failed to save callable %s: %w", cs.Name, err)
		}
		for j, ps := range cs.Params {
			var defKind, defValue, defType sql.NullString
			if ps.Default != nil {
				defKind = sql.NullString{String: defaultKind(ps.Default), Valid: true}
				defValue = sql.NullString{String: ps.Default.Value, Valid: true}
				defType = sql.NullString{String: ps.Default.Type, Valid: true}
			}
			if _, err = tx.ExecContext(ctx, insertParam, cs.Name, j, ps.Name, ps.Type, ps.Optional,
				defKind, defValue, defType); err != nil {
				return fmt.Errorf("failed to save parameter %d of %s: %w", j, cs.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata: %w", err)
	}
	s.logger.Info("saved metadata",
		zap.Int("types", len(m.Types)),
		zap.Int("callables", len(m.Callables)))
	return nil
}

func defaultKind(d *metadata.DefaultSpec) string {
	if d.Kind == "" {
		return "null"
	}
	return d.Kind
}

// Load reads the stored metadata as a manifest, preserving declaration order.
func (s *Store) Load(ctx context.Context) (*metadata.Manifest, error) {
	m := &metadata.Manifest{Version: metadata.ManifestVersion}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT name, kind, underlying, base FROM %s ORDER BY position", pq.QuoteIdentifier(typesTable)))
	if err != nil {
		return nil, fmt.Errorf("failed to query types: %w", err)
	}
	for rows.Next() {
		var ts metadata.TypeSpec
		if err := rows.Scan(&ts.Name, &ts.Kind, &ts.Underlying, &ts.Base); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan type: %w", err)
		}
		m.Types = append(m.Types, ts)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("failed to read types: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT name, kind, declaring, static, return_type FROM %s ORDER BY position", pq.QuoteIdentifier(callablesTable)))
	if err != nil {
		return nil, fmt.Errorf("failed to query callables: %w", err)
	}
	index := make(map[string]int)
	for rows.Next() {
		var cs metadata.CallableSpec
		if err := rows.Scan(&cs.Name, &cs.Kind, &cs.Declaring, &cs.Static, &cs.Return); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan callable: %w", err)
		}
		if cs.Kind == "method" {
			cs.Kind = ""
		}
		index[cs.Name] = len(m.Callables)
		m.Callables = append(m.Callables, cs)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("failed to read callables: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT callable, name, type, optional, default_kind, default_value, default_type FROM %s ORDER BY callable, position",
		pq.QuoteIdentifier(paramsTable)))
	if err != nil {
		return nil, fmt.Errorf("failed to query parameters: %w", err)
	}
	for rows.Next() {
		var (
			callable                   string
			ps                         metadata.ParamSpec
			defKind, defValue, defType sql.NullString
		)
		if err := rows.Scan(&callable, &ps.Name, &ps.Type, &ps.Optional, &defKind, &defValue, &defType); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan parameter: %w", err)
		}
		i, ok := index[callable]
		if !ok {
			rows.Close()
			return nil, fmt.Errorf("parameter %s belongs to unknown callable %s", ps.Name, callable)
		}
		if defKind.Valid {
			ps.Default = &metadata.DefaultSpec{Kind: defKind.String, Value: defValue.String, Type: defType.String}
		}
		m.Callables[i].Params = append(m.Callables[i].Params, ps)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("failed to read parameters: %w", err)
	}

	s.logger.Debug("loaded metadata",
		zap.Int("types", len(m.Types)),
		zap.Int("callables", len(m.Callables)))
	return m, nil
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}
