// Package scorecard aggregates the extracted rule set into per-framework
// compliance scorecards and a small list of structural checks. The scorecard
// is an artifact for governance review, not a verification primitive: proofs
// stay valid even when the scorecard grades FAIL.
package scorecard

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"attestor/internal/rules"
)

// Frameworks the suite reports on.
const (
	FrameworkGDPR  = "gdpr"
	FrameworkMiCA  = "mica"
	FrameworkDORA  = "dora"
	FrameworkAMLD6 = "amld6"
)

// Check severities.
const (
	SeverityFail = "fail"
	SeverityWarn = "warn"
)

// Grades.
const (
	GradePass = "PASS"
	GradeWarn = "WARN"
	GradeFail = "FAIL"
)

var allowedPriorities = map[string]bool{
	"critical": true,
	"high":     true,
	"medium":   true,
	"low":      true,
}

// Check is one structural check over the rule set.
type Check struct {
	Name     string `yaml:"name"`
	Passed   bool   `yaml:"passed"`
	Severity string `yaml:"severity"`
	Detail   string `yaml:"detail,omitempty"`
}

// FrameworkScore is the rollup for one regulatory framework.
type FrameworkScore struct {
	Framework  string         `yaml:"framework"`
	TotalRules int            `yaml:"total_rules"`
	Critical   int            `yaml:"critical"`
	ByPriority map[string]int `yaml:"by_priority"`
	ByCategory map[string]int `yaml:"by_category"`
}

// Scorecard is the persisted per-run compliance scorecard.
type Scorecard struct {
	GeneratedAt string           `yaml:"generated_at"`
	Grade       string           `yaml:"grade"`
	TotalRules  int              `yaml:"total_rules"`
	Frameworks  []FrameworkScore `yaml:"frameworks"`
	Checks      []Check          `yaml:"checks"`
	Warnings    []string         `yaml:"warnings,omitempty"`
}

// Build aggregates the loaded rule set. now may be nil (time.Now).
func Build(res *rules.Result, now func() time.Time) *Scorecard {
	if now == nil {
		now = time.Now
	}

	byFramework := make(map[string]*FrameworkScore)
	for _, r := range res.Rules {
		fw := r.Framework
		if fw == "" {
			fw = "unspecified"
		}
		score, ok := byFramework[fw]
		if !ok {
			score = &FrameworkScore{
				Framework:  fw,
				ByPriority: make(map[string]int),
				ByCategory: make(map[string]int),
			}
			byFramework[fw] = score
		}
		score.TotalRules++
		score.ByPriority[r.Priority]++
		if r.Category != "" {
			score.ByCategory[r.Category]++
		}
		if r.Priority == "critical" {
			score.Critical++
		}
	}

	names := make([]string, 0, len(byFramework))
	for name := range byFramework {
		names = append(names, name)
	}
	sort.Strings(names)

	sc := &Scorecard{
		GeneratedAt: now().UTC().Format(time.RFC3339),
		TotalRules:  len(res.Rules),
		Warnings:    res.Warnings,
	}
	for _, name := range names {
		sc.Frameworks = append(sc.Frameworks, *byFramework[name])
	}

	sc.Checks = runChecks(res, sc.Frameworks)
	sc.Grade = grade(sc.Checks)
	return sc
}

func runChecks(res *rules.Result, frameworks []FrameworkScore) []Check {
	checks := []Check{{
		Name:     "rule_set_not_empty",
		Severity: SeverityFail,
		Passed:   len(res.Rules) > 0,
		Detail:   fmt.Sprintf("%d rules loaded", len(res.Rules)),
	}, {
		Name:     "all_sources_loaded",
		Severity: SeverityWarn,
		Passed:   !res.Partial(),
		Detail:   fmt.Sprintf("%d warnings", len(res.Warnings)),
	}}

	bad := 0
	for _, r := range res.Rules {
		if !allowedPriorities[r.Priority] {
			bad++
		}
	}
	checks = append(checks, Check{
		Name:     "priorities_from_allowed_set",
		Severity: SeverityFail,
		Passed:   bad == 0,
		Detail:   fmt.Sprintf("%d rules with unknown priority", bad),
	})

	for _, fw := range frameworks {
		if fw.Framework == "unspecified" {
			continue
		}
		checks = append(checks, Check{
			Name:     "framework_has_critical_rule:" + fw.Framework,
			Severity: SeverityWarn,
			Passed:   fw.Critical > 0,
			Detail:   fmt.Sprintf("%d critical of %d", fw.Critical, fw.TotalRules),
		})
	}

	return checks
}

func grade(checks []Check) string {
	g := GradePass
	for _, c := range checks {
		if c.Passed {
			continue
		}
		if c.Severity == SeverityFail {
			return GradeFail
		}
		g = GradeWarn
	}
	return g
}

// WriteFile persists the scorecard as a YAML artifact.
func (sc *Scorecard) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create scorecard directory: %w", err)
		}
	}
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode scorecard: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scorecard: %w", err)
	}
	return nil
}
