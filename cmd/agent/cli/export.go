package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bewerbungsagent/internal/collect"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Scrape once and export the batch without touching the state",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format: json or csv")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rows, err := scrape(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var path string
	switch exportFormat {
	case "json":
		path, err = collect.ExportJSON(rows, cfg.State.ExportDir, now)
	case "csv":
		path, err = collect.ExportCSV(rows, cfg.State.ExportDir, now)
	default:
		return fmt.Errorf("unknown export format %q", exportFormat)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%d Stellen exportiert nach %s\n", len(rows), path)
	return nil
}
