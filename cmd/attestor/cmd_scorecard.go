package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"attestor/internal/rules"
	"attestor/internal/scorecard"
)

var scorecardOutput string

// scorecardCmd builds the per-framework compliance scorecard.
var scorecardCmd = &cobra.Command{
	Use:   "scorecard",
	Short: "Emit the per-framework compliance scorecard",
	Long: `Aggregates the loaded rule set into per-framework rollups (gdpr, mica,
dora, amld6) with structural checks, and writes the scorecard YAML artifact.
Exit code 1 when the scorecard grades FAIL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := cfg.Paths.ScorecardPath
		if scorecardOutput != "" {
			outPath = scorecardOutput
		}

		loader := rules.NewLoader(logger, cfg.Generation.LoaderConcurrency)
		res, err := loader.LoadDir(cfg.Paths.ContractsDir)
		if err != nil {
			return err
		}

		sc := scorecard.Build(res, nil)
		if err := sc.WriteFile(outPath); err != nil {
			return err
		}

		fmt.Println(renderer.Scorecard(sc, outPath))
		if sc.Grade == scorecard.GradeFail {
			return errVerificationFailed
		}
		return nil
	},
}

func init() {
	scorecardCmd.Flags().StringVarP(&scorecardOutput, "output", "o", "", "Alternate scorecard output path")
}
