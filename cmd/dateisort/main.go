package main

import (
	"fmt"
	"os"

	"dateisort/internal/config"
	"dateisort/internal/log"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	settingsPath string
	debug        bool

	settings *config.Settings
	store    *config.Store
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "dateisort",
		Short:   "Sort files into category folders by extension",
		Long:    `Dateisort sorts files from a source directory into a category tree, driven by a JSON rules document that maps extensions to categories.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if settingsPath != "" {
				settings, err = config.LoadSettingsFile(settingsPath)
			} else {
				settings, err = config.LoadSettings()
			}
			if err != nil {
				return fmt.Errorf("could not load settings: %w", err)
			}

			if debug {
				log.SetDebug(true)
			} else {
				log.SetLevel(settings.Options.LogLevel)
			}

			store = config.NewStore(settings.SorterConfig)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "settings file (default is $HOME/.config/dateisort/settings.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(sortCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
