// Package proof generates and verifies Merkle proof-of-detection documents.
// A proof document commits a single root hash to the full ordered rule set
// extracted from the SoT contracts; the verifier later replays the persisted
// leaf list to detect any added, removed, reordered or altered rule.
package proof

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// VerificationMethod identifies the hashing scheme of persisted documents.
// Hex strings are concatenated as text before hashing at every level.
const VerificationMethod = "merkle_tree_sha256_hexconcat_v1"

// Leaf is one persisted rule record inside a proof document.
type Leaf struct {
	RuleID            string `json:"rule_id"`
	NormalizedContent string `json:"normalized_content"`
	Hash              string `json:"hash"`
	SourceFile        string `json:"source_file"`
	LineNumber        int    `json:"line_number"`
}

// Document is the persisted proof-of-detection.
//
// Invariants: MerkleRoot equals the tree built over RuleHashes[].Hash in
// order, and TotalRules equals len(RuleHashes). Documents are written once
// per generation run and never mutated by verification.
type Document struct {
	ProofID            string   `json:"proof_id"`
	MerkleRoot         string   `json:"merkle_root"`
	TotalRules         int      `json:"total_rules"`
	RuleHashes         []Leaf   `json:"rule_hashes"`
	Timestamp          string   `json:"timestamp"`
	SourceFiles        []string `json:"source_files"`
	TreeDepth          int      `json:"tree_depth"`
	VerificationMethod string   `json:"verification_method"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Partial reports whether generation skipped any contract contribution.
func (d *Document) Partial() bool {
	return len(d.Warnings) > 0
}

// WriteFile persists the document as 2-space-indented JSON with HTML
// escaping off, overwriting any previous proof at path wholesale.
func (d *Document) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create proof directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create proof file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode proof: %w", err)
	}
	return nil
}

// ReadFile loads and schema-validates a persisted proof document.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("proof document invalid: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse proof: %w", err)
	}
	return &doc, nil
}
