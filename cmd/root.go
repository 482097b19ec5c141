package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "syndicator",
		Short: "Retail digital asset syndication tool",
		Long: `Syndicator fetches product images from the DAM catalog, selects the
right asset per retailer slot, and saves each file under the exact
naming convention the retailer's ingestion pipeline expects.

Run it as a web service (serve) for the operator page, or as a one-shot
batch (run) for scripted use.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}
