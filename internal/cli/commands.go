package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"termtodo/internal/config"
	"termtodo/internal/storage"
)

func newAddCmd(f *flags, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name...>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := joinName(args)
			return withStore(cmd, f, opts, func(ctx context.Context, s storage.Store, _ config.Config) error {
				return s.AddTask(ctx, name)
			})
		},
	}
}

func newSearchCmd(f *flags, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <name...>",
		Short: "Show tasks with exactly this name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := joinName(args)
			return withStore(cmd, f, opts, func(ctx context.Context, s storage.Store, _ config.Config) error {
				tasks, err := s.FindTasks(ctx, name)
				if err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}
}

func newDoneCmd(f *flags, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "done <name...>",
		Short: "Mark tasks with this name complete",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := joinName(args)
			return withStore(cmd, f, opts, func(ctx context.Context, s storage.Store, _ config.Config) error {
				if err := requireTask(ctx, s, name); err != nil {
					return err
				}
				return s.CompleteTask(ctx, name)
			})
		},
	}
}

func newToggleCmd(f *flags, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <name...>",
		Short: "Flip completion of tasks with this name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := joinName(args)
			return withStore(cmd, f, opts, func(ctx context.Context, s storage.Store, _ config.Config) error {
				if err := requireTask(ctx, s, name); err != nil {
					return err
				}
				return s.ToggleTask(ctx, name)
			})
		},
	}
}

func newRemoveCmd(f *flags, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid task id: %s", args[0])
			}
			return withStore(cmd, f, opts, func(ctx context.Context, s storage.Store, _ config.Config) error {
				return s.DeleteTask(ctx, id)
			})
		},
	}
}

func newShowAllCmd(f *flags, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show-all",
		Short: "Show every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, f, opts, func(ctx context.Context, s storage.Store, _ config.Config) error {
				tasks, err := s.ListTasks(ctx)
				if err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}
}

func joinName(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func requireTask(ctx context.Context, s storage.Store, name string) error {
	tasks, err := s.FindTasks(ctx, name)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("%w: no task named %q", storage.ErrNotFound, name)
	}
	return nil
}
