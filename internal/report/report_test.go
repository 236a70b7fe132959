package report

import (
	"strings"
	"testing"

	"attestor/internal/proof"
	"attestor/internal/registry"
	"attestor/internal/rules"
	"attestor/internal/scorecard"
)

func plain() *Renderer { return NewRenderer(false) }

func TestGeneration_PartialBanner(t *testing.T) {
	doc := &proof.Document{
		ProofID:    "p-1",
		MerkleRoot: strings.Repeat("a", 64),
		TotalRules: 2,
		Warnings:   []string{"contracts/x.yaml: no such file"},
	}
	out := plain().Generation(doc, "proofs/sot_merkle_proof.json")
	if !strings.Contains(out, "PARTIAL") {
		t.Errorf("expected PARTIAL banner, got:\n%s", out)
	}
	if !strings.Contains(out, "RESULT: GENERATED") {
		t.Errorf("missing final result line:\n%s", out)
	}
}

func TestVerification_FinalLine(t *testing.T) {
	pass := plain().Verification(proof.Outcome{OK: true, TotalRules: 3})
	if !strings.HasSuffix(pass, "RESULT: PASS") {
		t.Errorf("expected PASS suffix, got:\n%s", pass)
	}

	fail := plain().Verification(proof.Outcome{
		OK:          false,
		Diagnostics: []string{"root mismatch: stored aa.. computed bb.."},
	})
	if !strings.HasSuffix(fail, "RESULT: FAIL") {
		t.Errorf("expected FAIL suffix, got:\n%s", fail)
	}
	if !strings.Contains(fail, "root mismatch") {
		t.Errorf("diagnostics missing:\n%s", fail)
	}
}

func TestChains_CrossCheckFoldedIntoVerdict(t *testing.T) {
	chains := &registry.ChainReport{OK: true, Rules: 2, Links: 4}
	cross := &registry.ChainReport{OK: false, Diagnostics: []string{"registry has no recorded runs"}}
	out := plain().Chains(chains, cross)
	if !strings.HasSuffix(out, "RESULT: FAIL") {
		t.Errorf("cross-check failure must fail the verdict:\n%s", out)
	}
}

func TestScorecard_Grades(t *testing.T) {
	sc := scorecard.Build(&rules.Result{}, nil)
	out := plain().Scorecard(sc, "")
	if !strings.HasSuffix(out, "GRADE: FAIL") {
		t.Errorf("empty rule set must grade FAIL:\n%s", out)
	}
}

func TestNoColorOutputHasNoEscapes(t *testing.T) {
	out := plain().Verification(proof.Outcome{OK: true})
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain renderer emitted ANSI escapes:\n%q", out)
	}
}
