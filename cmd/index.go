package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swissenergydata/decipher/internal/index"
	"github.com/swissenergydata/decipher/internal/progress"
	"github.com/swissenergydata/decipher/internal/vectordb"
)

var indexReset bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the retrieval index from the corpus",
	Long: `Scans the CSV datasets and PDF reports and builds the four retrieval
collections. Unchanged files are skipped; use --reset to drop and rebuild
everything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		var reporter progress.Reporter = progress.NewReporter()
		if verbose {
			reporter = &progress.CIReporter{}
		}

		builder := index.NewBuilder(a.store, a.catalog, cfg.ReportsDir, cfg.IndexDir, cfg.Chunk, reporter)
		result, err := builder.Build(ctx, indexReset)
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d file(s), skipped %d unchanged, %d failed (%.1fs)\n",
			result.FilesProcessed, result.FilesSkipped, result.FilesFailed, result.Duration.Seconds())
		for _, name := range vectordb.Collections {
			fmt.Printf("  %-16s %d records\n", name, result.RecordCounts[name])
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "drop all collections and rebuild from scratch")
	rootCmd.AddCommand(indexCmd)
}
