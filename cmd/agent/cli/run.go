package cli

import (
	"github.com/spf13/cobra"
)

var (
	runDryRun        bool
	runSendOpen      bool
	runIncludeClosed bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scrape-reconcile-notify pass",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "reconcile but do not send anything")
	runCmd.Flags().BoolVar(&runSendOpen, "send-open", false, "mail every open record, not only due reminders")
	runCmd.Flags().BoolVar(&runIncludeClosed, "include-closed", false, "keep closed records in the tracker worksheet")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return runPipeline(cmd.Context(), cfg, pipelineOptions{
		dryRun:        runDryRun,
		sendOpen:      runSendOpen,
		includeClosed: runIncludeClosed,
	})
}
