package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dateisort/internal/log"
	"dateisort/internal/watch"

	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var (
		target string
		move   bool
	)

	cmd := &cobra.Command{
		Use:   "watch [directory...]",
		Short: "Watch directories and sort new files as they appear",
		Long:  `Watch the given directories (or the configured watch directories) and sort every newly created file into the target tree. Runs in the foreground until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				settings.Directories.Watch = args
			}
			if target != "" {
				settings.WatchMode.Target = target
			}
			if move {
				settings.WatchMode.Move = true
			}

			daemon, err := watch.NewDaemon(settings, store.Load())
			if err != nil {
				return err
			}
			daemon.SetCallback(func(path string, err error) {
				if err == nil {
					log.Info("sorted %s", path)
				}
			})

			if err := daemon.Start(); err != nil {
				return err
			}

			fmt.Println("Watching for new files. Press Ctrl+C to stop.")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan

			daemon.Stop()
			fmt.Printf("Stopped after sorting %d files.\n", daemon.Processed())
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "target directory (defaults to settings)")
	cmd.Flags().BoolVar(&move, "move", false, "move files instead of copying")

	return cmd
}
