package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulklister",
		Short: "Bulk marketplace listing tool for turning photo batches into listings",
		Long: `Bulklister turns a batch of raw product photos into validated, priced
marketplace listings.

Photos are uploaded in bounded-concurrency batches, partitioned into candidate
products by an AI grouping service, analyzed per product for listing
attributes and a price estimate, and published to the marketplace as one
batch. Groupings and forms can be corrected interactively through the web
API, or the whole pipeline can run unattended with the ingest command.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())

	return cmd
}
