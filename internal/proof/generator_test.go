package proof

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestor/internal/merkle"
	"attestor/internal/rules"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func sampleRules() *rules.Result {
	return &rules.Result{
		Rules: []rules.Rule{
			{ID: "GDPR-002", Description: "erasure on request", Priority: "high", Category: "privacy", SourceFile: "a.yaml", LineNumber: 8},
			{ID: "GDPR-001", Description: "data minimisation", Priority: "critical", Category: "privacy", SourceFile: "a.yaml", LineNumber: 4},
			{ID: "DORA-001", Description: "ict incident reporting", Priority: "critical", Category: "resilience", SourceFile: "b.yaml", LineNumber: 3},
		},
		SourceFiles: []string{"a.yaml", "b.yaml"},
	}
}

func TestGenerate_CommitsToRuleSet(t *testing.T) {
	gen := NewGenerator(GeneratorConfig{Now: fixedNow}, nil)
	doc := gen.Generate(sampleRules())

	require.Len(t, doc.RuleHashes, 3)
	assert.Equal(t, 3, doc.TotalRules)
	assert.Equal(t, VerificationMethod, doc.VerificationMethod)
	assert.Equal(t, "2026-03-14T09:26:53Z", doc.Timestamp)
	assert.NotEmpty(t, doc.ProofID)
	assert.Equal(t, 2, doc.TreeDepth)
	assert.False(t, doc.Partial())

	for _, leaf := range doc.RuleHashes {
		assert.Equal(t, merkle.HashLeaf(leaf.RuleID, leaf.NormalizedContent), leaf.Hash)
	}
}

func TestGenerate_CanonicalOrder(t *testing.T) {
	gen := NewGenerator(GeneratorConfig{SortByRuleID: true, Now: fixedNow}, nil)

	input := sampleRules()
	doc := gen.Generate(input)

	assert.Equal(t, "DORA-001", doc.RuleHashes[0].RuleID)
	assert.Equal(t, "GDPR-001", doc.RuleHashes[1].RuleID)
	assert.Equal(t, "GDPR-002", doc.RuleHashes[2].RuleID)
	// Caller's slice must keep its original order.
	assert.Equal(t, "GDPR-002", input.Rules[0].ID)
}

func TestGenerate_OrderChangesRoot(t *testing.T) {
	unsorted := NewGenerator(GeneratorConfig{Now: fixedNow}, nil).Generate(sampleRules())
	sorted := NewGenerator(GeneratorConfig{SortByRuleID: true, Now: fixedNow}, nil).Generate(sampleRules())
	assert.NotEqual(t, unsorted.MerkleRoot, sorted.MerkleRoot)
}

func TestGenerate_EmptyRuleSet(t *testing.T) {
	doc := NewGenerator(GeneratorConfig{Now: fixedNow}, nil).Generate(&rules.Result{})
	assert.Equal(t, merkle.EmptyRoot, doc.MerkleRoot)
	assert.Equal(t, 0, doc.TotalRules)
	assert.Equal(t, 0, doc.TreeDepth)
}

func TestGenerate_CarriesLoaderWarnings(t *testing.T) {
	res := sampleRules()
	res.Warnings = []string{"contracts/missing.yaml: no such file"}
	doc := NewGenerator(GeneratorConfig{Now: fixedNow}, nil).Generate(res)
	assert.True(t, doc.Partial())
	assert.Equal(t, res.Warnings, doc.Warnings)
}

func TestDocument_WriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "sot_merkle_proof.json")

	doc := NewGenerator(GeneratorConfig{SortByRuleID: true, Now: fixedNow}, nil).Generate(sampleRules())
	require.NoError(t, doc.WriteFile(path))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.MerkleRoot, loaded.MerkleRoot)
	assert.Equal(t, doc.RuleHashes, loaded.RuleHashes)
	assert.Equal(t, doc.ProofID, loaded.ProofID)
}

func TestDocument_WriteFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proof.json")
	doc := NewGenerator(GeneratorConfig{Now: fixedNow}, nil).Generate(&rules.Result{
		Rules: []rules.Rule{{ID: "R-1", Description: "a < b & c", Priority: "low", Category: "misc"}},
	})
	require.NoError(t, doc.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// 2-space indentation, HTML escaping off.
	assert.True(t, strings.Contains(string(data), "\n  \"merkle_root\""))
	assert.Contains(t, string(data), "a < b & c")
	assert.NotContains(t, string(data), `\u003c`)
	require.True(t, json.Valid(data))
}

func TestReadFile_RejectsSchemaViolations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proof.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"merkle_root": "not-hex", "total_rules": 0, "rule_hashes": [], "tree_depth": 0, "verification_method": "x"}`), 0644))

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}
