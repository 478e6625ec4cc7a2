package storage

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

func setupMySQL(t *testing.T) (*SQLStore, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mysql integration test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("Docker not available, skipping mysql integration tests")
	}

	ctx := context.Background()
	container, err := mysql.Run(ctx,
		"mysql:8.0.36",
		mysql.WithDatabase("todo"),
		mysql.WithUsername("todo"),
		mysql.WithPassword("todo"),
	)
	if err != nil {
		t.Skipf("failed to start mysql container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	s, err := OpenMySQL(ctx, dsn, 0, log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dsn
}

func TestMySQL_Lifecycle(t *testing.T) {
	s, dsn := setupMySQL(t)
	ctx := context.Background()

	require.NoError(t, s.AddTask(ctx, "Buy milk"))
	require.NoError(t, s.AddTask(ctx, "Walk dog"))
	require.NoError(t, s.AddTask(ctx, "Buy milk"))
	require.NoError(t, s.CompleteTask(ctx, "Walk dog"))
	require.NoError(t, s.CompleteTask(ctx, "Walk dog"))

	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"Buy milk", "Walk dog", "Buy milk"}, names(tasks))
	assert.False(t, tasks[0].Completed)
	assert.True(t, tasks[1].Completed)

	require.NoError(t, s.ToggleTask(ctx, "Buy milk"))
	found, err := s.FindTasks(ctx, "Buy milk")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.True(t, found[0].Completed)
	assert.True(t, found[1].Completed)

	none, err := s.FindTasks(ctx, "Call mom")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	require.NoError(t, s.DeleteTask(ctx, tasks[0].ID))
	assert.ErrorIs(t, s.DeleteTask(ctx, tasks[0].ID), ErrNotFound)

	// a second open must not re-apply migrations
	again, err := OpenMySQL(ctx, dsn, 0, log.New(io.Discard))
	require.NoError(t, err)
	defer again.Close()

	var n int
	require.NoError(t, again.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations;`).Scan(&n))
	want, err := loadMigrations("mysql")
	require.NoError(t, err)
	assert.Equal(t, len(want), n)

	left, err := again.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestMySQL_RecoversUnrecordedDDL(t *testing.T) {
	s, dsn := setupMySQL(t)
	ctx := context.Background()

	// the index exists but its version row is missing, as after a crash
	// between the implicit DDL commit and the insert
	_, err := s.db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = 2;`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	again, err := OpenMySQL(ctx, dsn, 0, log.New(io.Discard))
	require.NoError(t, err)
	defer again.Close()

	var n int
	require.NoError(t, again.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = 2;`).Scan(&n))
	assert.Equal(t, 1, n)
}
