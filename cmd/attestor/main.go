package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"attestor/internal/config"
	"attestor/internal/logging"
	"attestor/internal/report"
)

const version = "1.0.0"

var (
	// Global flags
	configPath string
	verbose    bool
	noColor    bool

	cfg      *config.Config
	logger   *zap.Logger
	renderer *report.Renderer
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "attestor",
	Short: "attestor - SoT compliance proof tooling",
	Long: `attestor generates and verifies Merkle proof-of-detection documents for
the SSID project's SoT rule contracts.

A generation run loads every contract, hashes each rule into a leaf, commits
the ordered leaf set to a single Merkle root, persists the proof document and
appends the run to the hash-chain registry. Verification replays persisted
leaf hashes and fails on any added, removed, reordered or altered rule.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		renderer = report.NewRenderer(!noColor)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// versionCmd prints the tool version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the attestor version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("attestor %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "attestor.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable styled output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(chainVerifyCmd)
	rootCmd.AddCommand(scorecardCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
