package cli_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termtodo/internal/cli"
	"termtodo/internal/config"
	"termtodo/internal/storage"
	"termtodo/internal/testutil"
	"termtodo/internal/ui"
)

type harness struct {
	store       *testutil.FakeStore
	opened      []config.Database
	interactive int
	openErr     error
	configPath  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(config.EnvDriver, "")
	t.Setenv(config.EnvDSN, "")
	t.Setenv("CLICOLOR_FORCE", "")
	return &harness{
		store:      testutil.NewFakeStore(),
		configPath: filepath.Join(t.TempDir(), "config.toml"),
	}
}

func (h *harness) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := cli.NewRootCommand(cli.Options{
		Stdout: &out,
		Stderr: &errOut,
		Open: func(ctx context.Context, cfg config.Database, logger *log.Logger) (storage.Store, error) {
			h.opened = append(h.opened, cfg)
			if h.openErr != nil {
				return nil, h.openErr
			}
			return h.store, nil
		},
		Interactive: func(ctx context.Context, store ui.Gateway, cfg config.Config) error {
			h.interactive++
			return nil
		},
	})
	root.SetArgs(append(args, "--config", h.configPath))
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestAddJoinsArguments(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "add", "Buy", "milk")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, []testutil.Call{{Op: "add", Name: "Buy milk"}}, h.store.Calls())
	assert.True(t, h.store.Closed(), "store is closed after the command")
}

func TestAddRequiresName(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "add")
	assert.Error(t, err)
	assert.Empty(t, h.opened, "store is not opened for invalid arguments")
}

func TestAddBlankName(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "add", " ")
	assert.ErrorIs(t, err, storage.ErrEmptyName)
}

func TestShowAll(t *testing.T) {
	h := newHarness(t)
	h.store.Seed("Buy milk", false)
	h.store.Seed("Walk dog", true)

	stdout, _, err := h.run(t, "show-all")
	require.NoError(t, err)
	assert.Equal(t, "1. Buy milk\n2. Walk dog\n", stdout)
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	h.store.Seed("Buy milk", false)
	h.store.Seed("Walk dog", false)
	h.store.Seed("Buy milk", true)

	stdout, _, err := h.run(t, "search", "Buy", "milk")
	require.NoError(t, err)
	assert.Equal(t, "1. Buy milk\n3. Buy milk\n", stdout)
}

func TestSearchNoMatch(t *testing.T) {
	h := newHarness(t)
	h.store.Seed("Buy milk", false)

	stdout, _, err := h.run(t, "search", "Call", "mom")
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestDoneMarksComplete(t *testing.T) {
	h := newHarness(t)
	h.store.Seed("Buy milk", true)
	h.store.Seed("Walk dog", false)

	_, _, err := h.run(t, "done", "Buy", "milk")
	require.NoError(t, err)

	tasks := h.store.Tasks()
	assert.True(t, tasks[0].Completed, "done never flips a completed task back")
	assert.False(t, tasks[1].Completed)
	assert.Equal(t, []testutil.Call{{Op: "complete", Name: "Buy milk"}}, h.store.Calls())
}

func TestDoneUnknownName(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "done", "Call", "mom")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, h.store.Calls())
}

func TestToggle(t *testing.T) {
	h := newHarness(t)
	h.store.Seed("Buy milk", true)

	_, _, err := h.run(t, "toggle", "Buy", "milk")
	require.NoError(t, err)
	assert.False(t, h.store.Tasks()[0].Completed)
}

func TestRemove(t *testing.T) {
	h := newHarness(t)
	h.store.Seed("Buy milk", false)
	h.store.Seed("Walk dog", false)

	_, _, err := h.run(t, "rm", "1")
	require.NoError(t, err)
	assert.Equal(t, []testutil.Call{{Op: "delete", ID: 1}}, h.store.Calls())
	assert.Len(t, h.store.Tasks(), 1)

	_, _, err = h.run(t, "rm", "1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, _, err = h.run(t, "rm", "first")
	assert.ErrorContains(t, err, "invalid task id")
}

func TestNoSubcommandRunsInteractive(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t)
	require.NoError(t, err)
	assert.Equal(t, 1, h.interactive)
	assert.Len(t, h.opened, 1)
}

func TestUnknownSubcommand(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "list")
	assert.Error(t, err)
	assert.Zero(t, h.interactive)
}

func TestFlagsOverrideConfig(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "show-all", "--driver", "Postgres", "--dsn", "host=db user=todo")
	require.NoError(t, err)
	require.Len(t, h.opened, 1)
	assert.Equal(t, "postgres", h.opened[0].Driver)
	assert.Equal(t, "host=db user=todo", h.opened[0].DSN)
}

func TestDefaultConfigUsesSQLiteNextToConfig(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "show-all")
	require.NoError(t, err)
	require.Len(t, h.opened, 1)
	assert.Equal(t, "sqlite", h.opened[0].Driver)
	assert.Equal(t, filepath.Join(filepath.Dir(h.configPath), config.DefaultDBName), h.opened[0].Path)
}

func TestOpenFailure(t *testing.T) {
	h := newHarness(t)
	h.openErr = errors.New("connection refused")

	_, _, err := h.run(t, "show-all")
	assert.ErrorContains(t, err, "open database")
	assert.ErrorContains(t, err, "connection refused")
}

func TestStoreErrorPropagates(t *testing.T) {
	h := newHarness(t)
	h.store.Err = errors.New("query failed")

	_, _, err := h.run(t, "show-all")
	assert.ErrorContains(t, err, "query failed")
}

func TestDebugLogsToStderr(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "show-all", "--debug")
	require.NoError(t, err)
	assert.Contains(t, stderr, "config loaded")
}

func TestNameKeyIgnoresSurroundingBlanks(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "add", " Buy milk ")
	require.NoError(t, err)

	stdout, _, err := h.run(t, "search", " Buy milk ")
	require.NoError(t, err)
	assert.Equal(t, "1. Buy milk\n", stdout)

	_, _, err = h.run(t, "done", "Buy", "milk ")
	require.NoError(t, err)
	assert.True(t, h.store.Tasks()[0].Completed)
}
