package main

import (
	"fmt"
	"strings"

	"dateisort/internal/config"

	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage sorting categories and exclusions",
		Long:  `List and edit the JSON rules document: categories with their extensions, excluded extensions and folders, and the default category.`,
	}

	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())
	cmd.AddCommand(categoriesRemoveCmd())
	cmd.AddCommand(categoriesAddExtCmd())
	cmd.AddCommand(categoriesRemoveExtCmd())
	cmd.AddCommand(categoriesExcludeExtCmd())
	cmd.AddCommand(categoriesIncludeExtCmd())
	cmd.AddCommand(categoriesExcludeFolderCmd())
	cmd.AddCommand(categoriesIncludeFolderCmd())
	cmd.AddCommand(categoriesSetDefaultCmd())

	return cmd
}

// editConfig loads the rules document, applies the edit, and saves the
// result. The loaded document is left untouched when the edit fails.
func editConfig(edit func(cfg *config.SorterConfig) error) error {
	cfg := store.Load().Clone()
	if err := edit(cfg); err != nil {
		return err
	}
	return store.Save(cfg)
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories, extensions, and exclusions",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := store.Load()

			fmt.Println("Categories:")
			for _, category := range cfg.Categories {
				marker := " "
				if category.Name == cfg.DefaultCategory {
					marker = "*"
				}
				fmt.Printf("%s %-20s %s\n", marker, category.Name, strings.Join(category.Extensions, " "))
			}
			fmt.Printf("\nDefault category: %s\n", cfg.DefaultCategory)

			if excluded := cfg.ExcludedExtensionList(); len(excluded) > 0 {
				fmt.Printf("Excluded extensions: %s\n", strings.Join(excluded, " "))
			}
			if excluded := cfg.ExcludedFolderList(); len(excluded) > 0 {
				fmt.Printf("Excluded folders: %s\n", strings.Join(excluded, " "))
			}
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> [extension...]",
		Short: "Add a category, optionally with extensions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.SorterConfig) error {
				if err := cfg.AddCategory(args[0]); err != nil {
					return err
				}
				for _, ext := range args[1:] {
					if err := cfg.AddExtension(args[0], ext); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func categoriesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a category and its extensions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.SorterConfig) error {
				return cfg.RemoveCategory(args[0])
			})
		},
	}
}

func categoriesAddExtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-ext <category> <extension...>",
		Short: "Add extensions to a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.SorterConfig) error {
				for _, ext := range args[1:] {
					if err := cfg.AddExtension(args[0], ext); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func categoriesRemoveExtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-ext <category> <extension>",
		Short: "Remove an extension from a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.SorterConfig) error {
				return cfg.RemoveExtension(args[0], args[1])
			})
		},
	}
}

func categoriesExcludeExtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exclude-ext <extension>",
		Short: "Exclude an extension from sorting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.SorterConfig) error {
				return cfg.AddExcludedExtension(args[0])
			})
		},
	}
}

func categoriesIncludeExtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "include-ext <extension>",
		Short: "Stop excluding an extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.SorterConfig) error {
				return cfg.RemoveExcludedExtension(args[0])
			})
		},
	}
}

func categoriesExcludeFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exclude-folder <name>",
		Short: "Exclude a folder name from sorting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.SorterConfig) error {
				return cfg.AddExcludedFolder(args[0])
			})
		},
	}
}

func categoriesIncludeFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "include-folder <name>",
		Short: "Stop excluding a folder name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.SorterConfig) error {
				cfg.RemoveExcludedFolder(args[0])
				return nil
			})
		},
	}
}

func categoriesSetDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <name>",
		Short: "Set the default category for unmapped extensions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.SorterConfig) error {
				cfg.SetDefaultCategory(args[0])
				return nil
			})
		},
	}
}
