package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bewerbungsagent/internal/scheduler"
)

var serveInterval int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on a schedule until interrupted",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&serveInterval, "interval", 6, "hours between runs")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(func(ctx context.Context) error {
		return runPipeline(ctx, cfg, pipelineOptions{})
	}, serveInterval)

	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	sched.Stop()
	return nil
}
