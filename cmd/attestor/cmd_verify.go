package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"attestor/internal/proof"
	"attestor/internal/registry"
)

// errVerificationFailed maps a failed audit to exit code 1.
var errVerificationFailed = errors.New("verification failed")

var verifyProofPath string

// verifyCmd verifies the persisted proof document.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the persisted proof-of-detection",
	Long: `Recomputes the Merkle root from the proof document's ordered leaf hashes
and compares it to the stored root. A missing or malformed proof file is a
verification failure, not a crash. Exit code 0 on PASS, 1 on FAIL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Paths.ProofPath
		if verifyProofPath != "" {
			path = verifyProofPath
		}

		out := proof.NewVerifier(logger).VerifyFile(path)
		fmt.Println(renderer.Verification(out))
		if !out.OK {
			return errVerificationFailed
		}
		return nil
	},
}

// chainVerifyCmd verifies the registry hash chains and cross-checks the proof.
var chainVerifyCmd = &cobra.Command{
	Use:   "chain-verify",
	Short: "Verify registry hash chains against the proof",
	Long: `Replays every rule's hash chain in the registry and cross-checks the
latest recorded run against the proof document on disk. Exit code 0 when
both hold, 1 otherwise.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Open(cfg.Paths.RegistryDB)
		if err != nil {
			return err
		}
		defer reg.Close()

		chains, err := reg.VerifyChains()
		if err != nil {
			return err
		}

		// The cross-check needs the proof document; an unreadable proof is a
		// failed cross-check, consistent with verify.
		var cross *registry.ChainReport
		if doc, err := proof.ReadFile(cfg.Paths.ProofPath); err != nil {
			cross = &registry.ChainReport{
				Diagnostics: []string{fmt.Sprintf("cannot load proof %s: %v", cfg.Paths.ProofPath, err)},
			}
		} else if cross, err = reg.CrossCheck(doc); err != nil {
			return err
		}

		fmt.Println(renderer.Chains(chains, cross))
		if !chains.OK || !cross.OK {
			return errVerificationFailed
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyProofPath, "proof", "p", "", "Alternate proof path to verify")
}
