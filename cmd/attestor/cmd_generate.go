package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"attestor/internal/proof"
	"attestor/internal/registry"
	"attestor/internal/rules"
	"attestor/internal/watch"
)

var generateOutput string

// generateCmd runs one full generation pass.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the SoT Merkle proof-of-detection",
	Long: `Loads every SoT contract, hashes the rules into Merkle leaves, writes the
proof document and appends the run to the hash-chain registry.

Generation always completes: missing or malformed contract files degrade to
warnings and a PARTIAL banner, and an empty rule set commits to the sentinel
root. The exit code is 0 regardless of content.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		proofPath := cfg.Paths.ProofPath
		if generateOutput != "" {
			proofPath = generateOutput
		}

		doc, err := runGeneration(proofPath)
		if err != nil {
			return err
		}
		fmt.Println(renderer.Generation(doc, proofPath))
		return nil
	},
}

// watchCmd regenerates the proof on contract changes until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the proof whenever contracts change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		watcher, err := watch.New(cfg.Paths.ContractsDir, func(ctx context.Context, changed []string) {
			doc, err := runGeneration(cfg.Paths.ProofPath)
			if err != nil {
				logger.Error("regeneration failed", zap.Error(err))
				return
			}
			fmt.Println(renderer.Generation(doc, cfg.Paths.ProofPath))
		}, logger)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}

		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()

		logger.Info("watching for contract changes", zap.String("dir", cfg.Paths.ContractsDir))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		return nil
	},
}

// runGeneration is the shared generate pipeline: load, hash, persist, record.
func runGeneration(proofPath string) (*proof.Document, error) {
	loader := rules.NewLoader(logger, cfg.Generation.LoaderConcurrency)
	res, err := loader.LoadDir(cfg.Paths.ContractsDir)
	if err != nil {
		return nil, err
	}

	gen := proof.NewGenerator(proof.GeneratorConfig{
		SortByRuleID: cfg.Generation.SortByRuleID,
	}, logger)
	doc := gen.Generate(res)

	if err := doc.WriteFile(proofPath); err != nil {
		return nil, err
	}

	reg, err := registry.Open(cfg.Paths.RegistryDB)
	if err != nil {
		return nil, err
	}
	defer reg.Close()

	if _, err := reg.Record(doc); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	return doc, nil
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Alternate proof output path")
}
