package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPostgresDSN = "host=localhost user=postgres"
	notifyChannel      = "todo_events"
)

type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
	keeper *keeper
}

var _ Store = (*PostgresStore)(nil)

func OpenPostgres(ctx context.Context, dsn string, logger *log.Logger) (*PostgresStore, error) {
	cfg, err := postgresConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: orDiscard(logger)}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s.keeper = startKeeper(s.listen)
	return s, nil
}

func postgresConfig(dsn string) (*pgxpool.Config, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = defaultPostgresDSN
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	// one connection is parked in LISTEN for the store's lifetime
	if cfg.MaxConns < 2 {
		cfg.MaxConns = 2
	}
	return cfg, nil
}

func (s *PostgresStore) Close() error {
	if s.pool == nil {
		return nil
	}
	s.keeper.stop()
	s.pool.Close()
	return nil
}

// listen drains change notifications on a dedicated connection until the
// store is closed.
func (s *PostgresStore) listen(ctx context.Context) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("connection error", "err", err)
		}
		return
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		if ctx.Err() == nil {
			s.logger.Error("connection error", "err", err)
		}
		return
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error("connection error", "err", err)
			}
			return
		}
		s.logger.Debug("task changed", "event", n.Payload)
	}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	migrations, err := loadMigrations("postgres")
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return err
	}
	applied := map[int]struct{}{}
	for _, v := range versions {
		applied[int(v)] = struct{}{}
	}

	for _, m := range migrations {
		if _, ok := applied[m.version]; ok {
			continue
		}
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return fmt.Errorf("apply migration %s: %w", m, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name); err != nil {
				return fmt.Errorf("record migration %s: %w", m, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.logger.Info("migration applied", "name", m.name, "version", m.version)
	}
	return nil
}

func (s *PostgresStore) AddTask(ctx context.Context, name string) error {
	name, err := validName(name)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO todo (name) VALUES ($1)`, name)
	return err
}

func (s *PostgresStore) ListTasks(ctx context.Context) ([]Task, error) {
	return s.queryTasks(ctx, `SELECT id, name, completed FROM todo ORDER BY id`)
}

func (s *PostgresStore) FindTasks(ctx context.Context, name string) ([]Task, error) {
	return s.queryTasks(ctx, `SELECT id, name, completed FROM todo WHERE name = $1 ORDER BY id`, lookupName(name))
}

func (s *PostgresStore) ToggleTask(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `UPDATE todo SET completed = NOT completed WHERE name = $1`, lookupName(name))
	return err
}

func (s *PostgresStore) CompleteTask(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `UPDATE todo SET completed = TRUE WHERE name = $1`, lookupName(name))
	return err
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM todo WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	tasks := []Task{}
	for rows.Next() {
		var t Task
		var id int32
		if err := rows.Scan(&id, &t.Name, &t.Completed); err != nil {
			rows.Close()
			return nil, err
		}
		t.ID = int64(id)
		tasks = append(tasks, t)
	}
	rows.Close()
	return tasks, rows.Err()
}
