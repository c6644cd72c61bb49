package cli

import (
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"bewerbungsagent/internal/config"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Bewerbungsagent: persönlicher Job-Such-Agent für die Schweiz",
	Long:  "Bewerbungsagent scrapt Schweizer Job-Portale, dedupliziert die Treffer gegen den persistenten Job-Status und verschickt den Digest per E-Mail, WhatsApp und Telegram.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		log.DefaultLogger = log.Logger{
			Level:      level,
			TimeFormat: "15:04:05",
			Writer: &log.ConsoleWriter{
				ColorOutput: true,
				Writer:      os.Stderr,
			},
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath)
}
