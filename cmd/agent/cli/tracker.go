package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bewerbungsagent/internal/jobstate"
	"bewerbungsagent/internal/tracker"
)

var trackerIncludeClosed bool

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Sync tracker marks into the state and rebuild the worksheet",
	RunE:  runTracker,
}

func init() {
	trackerCmd.Flags().BoolVar(&trackerIncludeClosed, "include-closed", false, "keep closed records in the worksheet")
	rootCmd.AddCommand(trackerCmd)
}

func runTracker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stamp := jobstate.FormatTS(time.Now().UTC())
	loaded := jobstate.LoadState(cfg.State.StatePath, cfg.State.SeenPath, stamp)
	if loaded.Err != nil {
		return fmt.Errorf("state unreadable: %w", loaded.Err)
	}
	state := loaded.State

	rows, err := tracker.Load(cfg.State.TrackerPath)
	if err != nil {
		return err
	}
	updates := tracker.ApplyMarks(state, rows, stamp)

	if err := jobstate.SaveState(state, cfg.State.StatePath); err != nil {
		return err
	}
	if err := tracker.Write(state, cfg.State.TrackerPath, rows, trackerIncludeClosed); err != nil {
		return err
	}

	fmt.Printf("%d Markierungen übernommen, %d Datensätze im Tracker\n", updates, len(state))
	return nil
}
