package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"termtodo/internal/config"
)

var (
	ErrEmptyName     = errors.New("task name is empty")
	ErrNotFound      = errors.New("task not found")
	ErrUnknownDriver = errors.New("unknown database driver")
)

type Task struct {
	ID        int64
	Name      string
	Completed bool
}

// Store is the gateway to the todo relation. Listings come back in id order.
type Store interface {
	AddTask(ctx context.Context, name string) error
	ListTasks(ctx context.Context) ([]Task, error)
	// FindTasks returns tasks whose name matches exactly; never nil.
	FindTasks(ctx context.Context, name string) ([]Task, error)
	// ToggleTask flips completed on every task with the given name.
	ToggleTask(ctx context.Context, name string) error
	// CompleteTask sets completed on every task with the given name.
	CompleteTask(ctx context.Context, name string) error
	DeleteTask(ctx context.Context, id int64) error
	Close() error
}

// Open connects to the backend named by cfg.Driver, applies pending
// migrations and starts the background connection keeper.
func Open(ctx context.Context, cfg config.Database, logger *log.Logger) (Store, error) {
	logger = orDiscard(logger)
	every, err := cfg.KeepAliveInterval()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		return OpenSQLite(ctx, cfg.Path, every, logger)
	case "mysql":
		return OpenMySQL(ctx, cfg.DSN, every, logger)
	case "postgres", "postgresql", "pgx":
		return OpenPostgres(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// validName is the stored form of a name; lookups go through lookupName so
// the same surrounding blanks are ignored on both sides.
func validName(name string) (string, error) {
	name = lookupName(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func lookupName(name string) string {
	return strings.TrimSpace(name)
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard)
	}
	return logger
}
