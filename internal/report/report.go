// Package report renders the human-readable console sections the audit
// commands print: a header, per-section detail lines and a final PASS/FAIL
// verdict. Styling is lipgloss; a Renderer with colors off emits plain text
// for logs and CI capture.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"attestor/internal/proof"
	"attestor/internal/registry"
	"attestor/internal/scorecard"
)

// Semantic colors
var (
	successColor = lipgloss.Color("#8BC34A") // Lime Green
	failColor    = lipgloss.Color("#e53935") // Red
	warnColor    = lipgloss.Color("#FFC107") // Yellow
	headerColor  = lipgloss.Color("#2196F3") // Blue
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(headerColor)
	passStyle    = lipgloss.NewStyle().Bold(true).Foreground(successColor)
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(failColor)
	partialStyle = lipgloss.NewStyle().Bold(true).Foreground(warnColor)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Renderer builds console reports.
type Renderer struct {
	color bool
}

// NewRenderer creates a renderer. color=false strips all styling.
func NewRenderer(color bool) *Renderer {
	return &Renderer{color: color}
}

func (r *Renderer) styled(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) header(title string) string {
	rule := strings.Repeat("=", 52)
	return r.styled(headerStyle, rule+"\n "+title+"\n"+rule)
}

func (r *Renderer) verdict(ok bool) string {
	if ok {
		return r.styled(passStyle, "RESULT: PASS")
	}
	return r.styled(failStyle, "RESULT: FAIL")
}

// Generation renders the post-generation summary. Generation has no FAIL
// verdict (it always completes); a partial load gets a PARTIAL banner.
func (r *Renderer) Generation(doc *proof.Document, proofPath string) string {
	var b strings.Builder
	b.WriteString(r.header("SoT PROOF-OF-DETECTION — GENERATION") + "\n")
	fmt.Fprintf(&b, "proof id:     %s\n", doc.ProofID)
	fmt.Fprintf(&b, "merkle root:  %s\n", doc.MerkleRoot)
	fmt.Fprintf(&b, "rules:        %d\n", doc.TotalRules)
	fmt.Fprintf(&b, "tree depth:   %d\n", doc.TreeDepth)
	fmt.Fprintf(&b, "sources:      %d\n", len(doc.SourceFiles))
	fmt.Fprintf(&b, "written to:   %s\n", proofPath)

	if doc.Partial() {
		b.WriteString(r.styled(partialStyle, "PARTIAL: some contract sources were skipped") + "\n")
		for _, w := range doc.Warnings {
			b.WriteString(r.styled(dimStyle, "  - "+w) + "\n")
		}
	}
	b.WriteString(r.styled(passStyle, "RESULT: GENERATED"))
	return b.String()
}

// Verification renders a proof verification outcome.
func (r *Renderer) Verification(out proof.Outcome) string {
	var b strings.Builder
	b.WriteString(r.header("SoT PROOF-OF-DETECTION — VERIFICATION") + "\n")
	fmt.Fprintf(&b, "rules:         %d\n", out.TotalRules)
	fmt.Fprintf(&b, "stored root:   %s\n", short(out.StoredRoot))
	fmt.Fprintf(&b, "computed root: %s\n", short(out.ComputedRoot))
	for _, d := range out.Diagnostics {
		b.WriteString(r.styled(dimStyle, "  ! "+d) + "\n")
	}
	b.WriteString(r.verdict(out.OK))
	return b.String()
}

// Chains renders a registry chain verification plus optional cross-check.
func (r *Renderer) Chains(chains *registry.ChainReport, cross *registry.ChainReport) string {
	var b strings.Builder
	b.WriteString(r.header("HASH-CHAIN REGISTRY — VERIFICATION") + "\n")
	fmt.Fprintf(&b, "rules tracked: %d\n", chains.Rules)
	fmt.Fprintf(&b, "chain links:   %d\n", chains.Links)
	for _, brk := range chains.Breaks {
		b.WriteString(r.styled(dimStyle, "  ! "+brk) + "\n")
	}

	ok := chains.OK
	if cross != nil {
		for _, d := range cross.Diagnostics {
			b.WriteString(r.styled(dimStyle, "  ! "+d) + "\n")
		}
		ok = ok && cross.OK
	}
	b.WriteString(r.verdict(ok))
	return b.String()
}

// Scorecard renders the scorecard summary.
func (r *Renderer) Scorecard(sc *scorecard.Scorecard, outPath string) string {
	var b strings.Builder
	b.WriteString(r.header("COMPLIANCE SCORECARD") + "\n")
	fmt.Fprintf(&b, "rules:   %d\n", sc.TotalRules)
	for _, fw := range sc.Frameworks {
		fmt.Fprintf(&b, "  %-12s %3d rules, %d critical\n", fw.Framework, fw.TotalRules, fw.Critical)
	}
	for _, c := range sc.Checks {
		mark := "ok"
		if !c.Passed {
			mark = c.Severity
		}
		fmt.Fprintf(&b, "  [%-4s] %s (%s)\n", mark, c.Name, c.Detail)
	}
	if outPath != "" {
		fmt.Fprintf(&b, "written to: %s\n", outPath)
	}

	switch sc.Grade {
	case scorecard.GradePass:
		b.WriteString(r.styled(passStyle, "GRADE: PASS"))
	case scorecard.GradeWarn:
		b.WriteString(r.styled(partialStyle, "GRADE: WARN"))
	default:
		b.WriteString(r.styled(failStyle, "GRADE: FAIL"))
	}
	return b.String()
}

func short(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16] + ".."
}
