package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ecomm-asset-tools/syndicator/internal/batch"
	"github.com/ecomm-asset-tools/syndicator/internal/config"
	"github.com/ecomm-asset-tools/syndicator/internal/identifiers"
	"github.com/ecomm-asset-tools/syndicator/internal/retailer"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		configPath   string
		inputPath    string
		retailerName string
		source       string
		workers      int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a one-shot batch download from an identifier file",
		Long: `Runs a batch download without the web interface: parse the identifier
file, download every selected asset, print the summary, and exit.

Exits non-zero when the batch fails outright (for example when the
portal browser session cannot be established).`,
		Example: `  # Download Sobeys assets for every item in items.xlsx
  syndicator run --input items.xlsx --retailer Sobeys

  # All retailers, catalog API, four concurrent items
  syndicator run --input items.csv --retailer Both --source api --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Download.Workers = workers
			}
			if source == "" {
				source = parseSourceFlagDefaults(cfg)
			}

			registry := newRegistry(cfg)
			rules, err := registry.For(retailerName)
			if err != nil {
				return err
			}

			items, report, err := identifiers.ParseFile(inputPath, retailer.RequiredColumns(rules))
			if err != nil {
				return err
			}
			if report.DroppedRows > 0 {
				slog.Warn("Dropped duplicate rows from input", "rows", report.DroppedRows, "bmns", report.BMNs)
			}
			if len(items) == 0 {
				return fmt.Errorf("no valid items in %s", inputPath)
			}

			assetSource, poolSize, err := newSource(cfg, source)
			if err != nil {
				return err
			}
			runner := newRunner(cfg, assetSource, poolSize, nil)

			if err := runner.Start(items, rules); err != nil {
				return err
			}
			if state := runner.Wait(); state == batch.Failed {
				return fmt.Errorf("batch failed")
			}

			status := runner.Snapshot()
			slog.Info("Batch finished",
				"state", status.State,
				"succeeded", len(status.Succeeded),
				"restricted", len(status.Restricted),
				"not_found", len(status.NotFound))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to YAML config file")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Identifier file (.txt, .csv, .xlsx, .xls, .jsonl, .parquet)")
	cmd.Flags().StringVarP(&retailerName, "retailer", "r", retailer.Both, "Retailer: Sobeys, Instacart, Amazon, or Both")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Asset source: api or portal")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent items (api source only; overrides config)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
