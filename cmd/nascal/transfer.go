package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nascal/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all events as pretty-printed JSON",
	Long: `Write the full id-to-event mapping as pretty-printed JSON. Without an
argument the file is written next to the current directory under the fixed
export name; "-" writes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := loadApp()
		if err != nil {
			return err
		}

		data, err := st.ExportJSON()
		if err != nil {
			return err
		}

		target := store.ExportFileName
		if len(args) == 1 {
			target = args[0]
		}
		if target == "-" {
			fmt.Println(string(data))
			return nil
		}

		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("exported %d events to %s\n", st.Len(), target)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge events from a JSON file into the store",
	Long: `Merge a JSON payload into the store. The file may hold either an array
of events or an id-to-event mapping. The merge is atomic: a payload with a
record missing its title or date is rejected in full.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := loadApp()
		if err != nil {
			return err
		}

		payload, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		n, err := st.ImportMerge(payload)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d events\n", n)
		return nil
	},
}
