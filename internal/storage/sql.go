package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// SQLStore serves the sqlite and mysql backends through database/sql. Both
// drivers take '?' placeholders, so the statements are shared.
type SQLStore struct {
	db      *sql.DB
	dialect string
	logger  *log.Logger
	keeper  *keeper
}

func OpenSQLite(ctx context.Context, dbPath string, keepAlive time.Duration, logger *log.Logger) (*SQLStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, "sqlite", keepAlive, logger)
}

func OpenMySQL(ctx context.Context, dsn string, keepAlive time.Duration, logger *log.Logger) (*SQLStore, error) {
	dsn, err := mysqlDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return newSQLStore(ctx, db, "mysql", keepAlive, logger)
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect string, keepAlive time.Duration, logger *log.Logger) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", dialect, err)
	}
	logger = orDiscard(logger)
	s := &SQLStore{db: db, dialect: dialect, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.keeper = startKeeper(func(ctx context.Context) {
		pingLoop(ctx, db, keepAlive, logger)
	})
	return s, nil
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.keeper.stop()
	return s.db.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	migrations, err := loadMigrations(s.dialect)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[int]struct{}{}
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations;`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return err
		}
		applied[v] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, m := range migrations {
		if _, ok := applied[m.version]; ok {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			if !ddlAlreadyApplied(s.dialect, err) {
				tx.Rollback()
				return fmt.Errorf("apply migration %s: %w", m, err)
			}
			s.logger.Warn("migration already in schema, recording it", "name", m.name, "version", m.version, "err", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES (?, ?);`, m.version, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		s.logger.Info("migration applied", "name", m.name, "version", m.version)
	}
	return nil
}

// ddlAlreadyApplied reports whether err means the migration's objects
// already exist. MySQL commits DDL implicitly, so a crash can leave a
// migration applied without its schema_migrations row.
func ddlAlreadyApplied(dialect string, err error) bool {
	var me *mysql.MySQLError
	if dialect != "mysql" || !errors.As(err, &me) {
		return false
	}
	switch me.Number {
	case 1050, 1060, 1061: // table, column, key name exists
		return true
	}
	return false
}

func (s *SQLStore) AddTask(ctx context.Context, name string) error {
	name, err := validName(name)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO todo (name, completed) VALUES (?, 0);`, name)
	return err
}

func (s *SQLStore) ListTasks(ctx context.Context) ([]Task, error) {
	return s.queryTasks(ctx, `SELECT id, name, completed FROM todo ORDER BY id;`)
}

func (s *SQLStore) FindTasks(ctx context.Context, name string) ([]Task, error) {
	return s.queryTasks(ctx, `SELECT id, name, completed FROM todo WHERE name = ? ORDER BY id;`, lookupName(name))
}

func (s *SQLStore) ToggleTask(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE todo SET completed = NOT completed WHERE name = ?;`, lookupName(name))
	return err
}

func (s *SQLStore) CompleteTask(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE todo SET completed = 1 WHERE name = ?;`, lookupName(name))
	return err
}

func (s *SQLStore) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todo WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func (s *SQLStore) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var t Task
		var completed int
		if err := rows.Scan(&t.ID, &t.Name, &completed); err != nil {
			return nil, err
		}
		t.Completed = completed == 1
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}

// mysqlDSN validates dsn, falling back to a local "todo" database.
func mysqlDSN(dsn string) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		cfg := mysql.NewConfig()
		cfg.User = "root"
		cfg.Net = "tcp"
		cfg.Addr = "127.0.0.1:3306"
		cfg.DBName = "todo"
		return cfg.FormatDSN(), nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return "", errors.New("mysql dsn: database name is required")
	}
	return cfg.FormatDSN(), nil
}
