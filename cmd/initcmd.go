package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swissenergydata/decipher/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgPath); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
		}

		if err := config.DefaultConfig().Save(cfgPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", cfgPath)
		fmt.Printf("Set %s and run \"decipher index\" to build the retrieval index.\n",
			config.APIKeyEnvVar(config.ProviderOpenAI))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration file")
	rootCmd.AddCommand(initCmd)
}
