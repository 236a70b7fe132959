package proof

import (
	"fmt"

	"go.uber.org/zap"

	"attestor/internal/merkle"
)

// Outcome is the result of verifying a proof document. Verification never
// raises: missing or malformed input is folded into a failed Outcome with
// diagnostics, matching the read-only auditing contract.
type Outcome struct {
	OK           bool
	StoredRoot   string
	ComputedRoot string
	TotalRules   int
	Diagnostics  []string
}

func failure(diags ...string) Outcome {
	return Outcome{OK: false, Diagnostics: diags}
}

// Verifier re-derives roots from persisted proof documents.
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a proof verifier. A nil logger disables logging.
func NewVerifier(logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{logger: logger}
}

// Verify rebuilds the Merkle root from the document's ordered leaf hashes
// and compares it to the stored root with exact string equality. A match
// means no rule was added, removed, reordered or altered since generation.
func (v *Verifier) Verify(doc *Document) Outcome {
	out := Outcome{
		StoredRoot: doc.MerkleRoot,
		TotalRules: len(doc.RuleHashes),
	}

	if doc.TotalRules != len(doc.RuleHashes) {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf(
			"total_rules=%d does not match %d persisted leaves", doc.TotalRules, len(doc.RuleHashes)))
	}

	hashes := make([]string, 0, len(doc.RuleHashes))
	for _, leaf := range doc.RuleHashes {
		hashes = append(hashes, leaf.Hash)
	}

	tree := merkle.Build(hashes)
	out.ComputedRoot = tree.RootHash

	if tree.RootHash != doc.MerkleRoot {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf(
			"root mismatch: stored %s.. computed %s..", truncate(doc.MerkleRoot), truncate(tree.RootHash)))
	}

	out.OK = len(out.Diagnostics) == 0

	v.logger.Info("proof verified",
		zap.Bool("ok", out.OK),
		zap.Int("total_rules", out.TotalRules),
		zap.String("stored_root", out.StoredRoot),
		zap.String("computed_root", out.ComputedRoot))

	return out
}

// VerifyFile loads a persisted proof and verifies it. Load failures are
// verification failures, not errors: the caller gets a false Outcome with
// the reason in Diagnostics.
func (v *Verifier) VerifyFile(path string) Outcome {
	doc, err := ReadFile(path)
	if err != nil {
		v.logger.Warn("proof unreadable", zap.String("path", path), zap.Error(err))
		return failure(fmt.Sprintf("cannot load proof %s: %v", path, err))
	}
	return v.Verify(doc)
}

// truncate shortens a root hash for display in diagnostics.
func truncate(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16]
}
