package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dateisort/internal/log"
	"dateisort/internal/sorter"
	"dateisort/internal/tui"
	"dateisort/pkg/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func sortCmd() *cobra.Command {
	var (
		source    string
		target    string
		operation string
		noTUI     bool
	)

	cmd := &cobra.Command{
		Use:   "sort [source] [target]",
		Short: "Sort a directory into the category tree",
		Long:  `Sort every file under the source directory into category folders below the target directory. Files keep their names; a name already taken in the destination gets a (N) suffix.`,
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				source = args[0]
			}
			if len(args) > 1 {
				target = args[1]
			}
			if source == "" {
				source = settings.Directories.Source
			}
			if target == "" {
				target = settings.Directories.Target
			}
			if source == "" || target == "" {
				return fmt.Errorf("source and target directories are required (arguments, flags, or settings)")
			}

			if operation == "" {
				operation = settings.Options.Operation
			}
			op, err := types.ParseOperation(operation)
			if err != nil {
				return err
			}

			engine := sorter.New(store.Load())
			if err := engine.ValidateDirectories(source, target); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if settings.Options.TUI && !noTUI && isTerminal() {
				return runSortTUI(ctx, engine, source, target, op)
			}
			return runSortPlain(ctx, engine, source, target, op)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "source directory (defaults to settings)")
	cmd.Flags().StringVarP(&target, "target", "t", "", "target directory (defaults to settings)")
	cmd.Flags().StringVarP(&operation, "operation", "o", "", "copy or move (defaults to settings)")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "plain log output instead of the progress view")

	return cmd
}

func runSortPlain(ctx context.Context, engine *sorter.Engine, source, target string, op types.Operation) error {
	fmt.Printf("Sorting %s -> %s (%s)\n", source, target, op)

	result, err := engine.Sort(ctx, source, target, op, func(done int) {
		log.Debug("progress: %d files handled", done)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Printf("Aborted: %s\n", result.String())
			return nil
		}
		return err
	}

	fmt.Println(result.String())
	return nil
}

func runSortTUI(ctx context.Context, engine *sorter.Engine, source, target string, op types.Operation) error {
	files, err := engine.Discover(source, target)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg, 32)
	engine.SetLogFunc(func(message string) {
		events <- tui.LogMsg(message)
	})

	go func() {
		result, err := engine.SortFiles(ctx, files, target, op, func(done int) {
			events <- tui.ProgressMsg(done)
		})
		events <- tui.DoneMsg{Result: result, Err: err}
	}()

	result, err := tui.Run(len(files), events, cancel)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Printf("Aborted: %s\n", result.String())
			return nil
		}
		return err
	}
	fmt.Println(result.String())
	return nil
}

func isTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
