package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/swissenergydata/decipher/internal/audit"
	"github.com/swissenergydata/decipher/internal/vectordb"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and usage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.catalog.Scan(ctx); err != nil {
			return err
		}

		fmt.Println("Collections:")
		for _, name := range vectordb.Collections {
			fmt.Printf("  %-16s %d records\n", name, a.store.Count(name))
		}

		cards := a.catalog.Cards()
		fmt.Printf("\nDatasets: %d", len(cards))
		if skipped := a.catalog.Skipped(); len(skipped) > 0 {
			fmt.Printf(" (%d skipped as malformed)", len(skipped))
		}
		fmt.Println()

		// Usage counts come from the audit log, when one exists.
		log, err := audit.Open(cfg.IndexDir)
		if err != nil {
			return nil
		}
		defer log.Close()

		counts, err := log.AgentCounts(ctx)
		if err != nil || len(counts) == 0 {
			return nil
		}
		names := make([]string, 0, len(counts))
		for n := range counts {
			names = append(names, n)
		}
		sort.Strings(names)

		fmt.Println("\nAgent invocations:")
		for _, n := range names {
			fmt.Printf("  %-24s %d\n", n, counts[n])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
