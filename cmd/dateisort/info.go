package main

import (
	"fmt"
	"os"

	"dateisort/internal/sorter"
	"dateisort/pkg/types"

	"github.com/spf13/cobra"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file...>",
		Short: "Show file details and the category a file would be sorted into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := sorter.New(store.Load())

			for i, path := range args {
				stat, err := os.Stat(path)
				if err != nil {
					return fmt.Errorf("cannot read %s: %w", path, err)
				}
				if stat.IsDir() {
					return fmt.Errorf("%s is a directory", path)
				}

				info := types.FileInfo{
					Path:    path,
					Size:    stat.Size(),
					ModTime: stat.ModTime(),
				}
				if class, ok := engine.Categorize(path); ok {
					info.Category = class.Category
				} else {
					info.Category = "(excluded)"
				}

				if i > 0 {
					fmt.Println()
				}
				fmt.Print(info.String())
			}
			return nil
		},
	}
}
