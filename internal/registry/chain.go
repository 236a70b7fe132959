package registry

import (
	"fmt"

	"attestor/internal/merkle"
	"attestor/internal/proof"
)

// ChainReport is the outcome of replaying every rule's hash chain.
type ChainReport struct {
	OK          bool
	Rules       int
	Links       int
	Breaks      []string
	Diagnostics []string
}

// VerifyChains recomputes every rule's chain from its first link and reports
// any link whose stored hashes do not replay. A break means the recorded
// history was altered after the fact (edited leaf hash, dropped or reordered
// link).
func (s *Store) VerifyChains() (*ChainReport, error) {
	rows, err := s.db.Query(
		`SELECT rule_id, seq, leaf_hash, prev_chain_hash, chain_hash
		 FROM chain_links ORDER BY rule_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("read chain links: %w", err)
	}
	defer rows.Close()

	report := &ChainReport{}
	var (
		curRule  string
		expected string
		nextSeq  int
	)

	for rows.Next() {
		var (
			ruleID, leafHash, prevStored, stored string
			seq                                  int
		)
		if err := rows.Scan(&ruleID, &seq, &leafHash, &prevStored, &stored); err != nil {
			return nil, fmt.Errorf("scan chain link: %w", err)
		}
		report.Links++

		if ruleID != curRule {
			curRule = ruleID
			expected = merkle.EmptyRoot
			nextSeq = 1
			report.Rules++
		}

		switch {
		case seq != nextSeq:
			report.Breaks = append(report.Breaks,
				fmt.Sprintf("%s: link %d missing (found seq %d)", ruleID, nextSeq, seq))
		case prevStored != expected:
			report.Breaks = append(report.Breaks,
				fmt.Sprintf("%s: link %d prev hash broken", ruleID, seq))
		case chainHash(prevStored, leafHash) != stored:
			report.Breaks = append(report.Breaks,
				fmt.Sprintf("%s: link %d chain hash does not replay", ruleID, seq))
		}

		expected = stored
		nextSeq = seq + 1
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain links: %w", err)
	}

	report.OK = len(report.Breaks) == 0
	return report, nil
}

// CrossCheck confirms the latest recorded run still matches the proof
// document on disk. Diagnostics explain any divergence; an empty registry is
// a failed cross-check, not an error.
func (s *Store) CrossCheck(doc *proof.Document) (*ChainReport, error) {
	latest, err := s.LatestRun()
	if err != nil {
		return nil, err
	}

	report := &ChainReport{}
	switch {
	case latest == nil:
		report.Diagnostics = append(report.Diagnostics, "registry has no recorded runs")
	case latest.MerkleRoot != doc.MerkleRoot:
		report.Diagnostics = append(report.Diagnostics, fmt.Sprintf(
			"latest recorded root %.16s.. does not match proof root %.16s..",
			latest.MerkleRoot, doc.MerkleRoot))
	case latest.TotalRules != doc.TotalRules:
		report.Diagnostics = append(report.Diagnostics, fmt.Sprintf(
			"latest recorded run has %d rules, proof has %d", latest.TotalRules, doc.TotalRules))
	}

	report.OK = len(report.Diagnostics) == 0
	return report, nil
}
