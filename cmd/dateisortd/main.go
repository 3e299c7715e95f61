// Command dateisortd runs the watch daemon headless: it loads the settings,
// watches the configured directories, and sorts newly created files until it
// receives SIGINT or SIGTERM.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dateisort/internal/config"
	"dateisort/internal/log"
	"dateisort/internal/watch"
)

func main() {
	settingsPath := flag.String("config", "", "settings file (default is $HOME/.config/dateisort/settings.yaml)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	var (
		settings *config.Settings
		err      error
	)
	if *settingsPath != "" {
		settings, err = config.LoadSettingsFile(*settingsPath)
	} else {
		settings, err = config.LoadSettings()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load settings: %v\n", err)
		os.Exit(1)
	}

	if *debug {
		log.SetDebug(true)
	} else {
		log.SetLevel(settings.Options.LogLevel)
	}

	if !settings.WatchMode.Enabled {
		fmt.Fprintln(os.Stderr, "watch mode is not enabled in the settings")
		os.Exit(1)
	}

	store := config.NewStore(settings.SorterConfig)
	daemon, err := watch.NewDaemon(settings, store.Load())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create daemon: %v\n", err)
		os.Exit(1)
	}

	if err := daemon.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "could not start daemon: %v\n", err)
		os.Exit(1)
	}
	log.Info("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Info("received %s, shutting down", sig)
	daemon.Stop()
	log.Info("sorted %d files", daemon.Processed())
}
