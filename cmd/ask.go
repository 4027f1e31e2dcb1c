package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askPersona string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		persona, err := resolvePersona(askPersona)
		if err != nil {
			return err
		}

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		resp := a.orch.Process(ctx, query, persona, nil)

		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		fmt.Println(resp.Content)
		fmt.Println()
		fmt.Printf("Confidence: %.2f\n", resp.Confidence)
		if len(resp.DataSources) > 0 {
			fmt.Printf("Sources: %s\n", strings.Join(resp.DataSources, ", "))
		}
		if len(resp.Suggestions) > 0 {
			fmt.Println("You could also ask:")
			for _, s := range resp.Suggestions {
				fmt.Printf("  - %s\n", s)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askPersona, "persona", "p", "", "audience: citizen, journalist, student, or policymaker")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(askCmd)
}
