// Package rules loads SoT contract files and turns their rule entries into
// the leaf records the proof generator hashes. A contract is a YAML file with
// a top-level `rules:` list; each entry carries id, description, priority and
// category, plus an optional framework tag (gdpr, mica, dora, amld6).
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Rule is one extracted rule record. Immutable once extracted; the hash over
// ID and normalized content becomes the Merkle leaf.
type Rule struct {
	ID          string
	Description string
	Priority    string
	Category    string
	Framework   string
	SourceFile  string
	LineNumber  int
}

// NormalizedContent returns the canonical content string hashed into the
// leaf: lowercased description, whitespace collapsed, joined with priority
// and category.
func (r Rule) NormalizedContent() string {
	desc := strings.Join(strings.Fields(strings.ToLower(r.Description)), " ")
	return desc + "|" + r.Priority + "|" + r.Category
}

// Result is the outcome of loading a contracts directory. Warnings record
// skipped files and duplicate IDs; generation proceeds despite them, but the
// report surfaces a PARTIAL banner when any are present.
type Result struct {
	Rules       []Rule
	SourceFiles []string
	Warnings    []string
}

// Partial reports whether any contract contribution was skipped.
func (res *Result) Partial() bool {
	return len(res.Warnings) > 0
}

// Loader discovers and parses SoT contract files.
type Loader struct {
	logger      *zap.Logger
	concurrency int
}

// NewLoader creates a contract loader. A nil logger disables logging.
func NewLoader(logger *zap.Logger, concurrency int) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Loader{logger: logger, concurrency: concurrency}
}

// LoadDir loads every *.yaml / *.yml contract under dir (non-recursive).
// Files are parsed concurrently but assembled in sorted path order so the
// resulting rule sequence is deterministic. A missing directory or file
// degrades to a warning, never an error: the proof convention is
// "no rules = no proof", and partial sets stay generable.
func (l *Loader) LoadDir(dir string) (*Result, error) {
	res := &Result{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("contracts directory unreadable: %v", err))
		l.logger.Warn("contracts directory unreadable", zap.String("dir", dir), zap.Error(err))
		return res, nil
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	return l.LoadFiles(paths)
}

// LoadFiles loads the given contract files, preserving the given order.
func (l *Loader) LoadFiles(paths []string) (*Result, error) {
	res := &Result{}

	type fileResult struct {
		rules []Rule
		warn  string
	}
	results := make([]fileResult, len(paths))

	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			rs, err := parseContract(path)
			if err != nil {
				results[i] = fileResult{warn: fmt.Sprintf("%s: %v", path, err)}
				l.logger.Warn("contract skipped", zap.String("file", path), zap.Error(err))
				return nil
			}
			results[i] = fileResult{rules: rs}
			return nil
		})
	}
	// Workers never return errors; failures become warnings.
	_ = g.Wait()

	seen := make(map[string]string)
	for i, fr := range results {
		if fr.warn != "" {
			res.Warnings = append(res.Warnings, fr.warn)
			continue
		}
		res.SourceFiles = append(res.SourceFiles, paths[i])
		for _, r := range fr.rules {
			if prev, dup := seen[r.ID]; dup {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("duplicate rule id %q in %s (first seen in %s)", r.ID, r.SourceFile, prev))
				continue
			}
			seen[r.ID] = r.SourceFile
			res.Rules = append(res.Rules, r)
		}
	}

	l.logger.Info("contracts loaded",
		zap.Int("files", len(res.SourceFiles)),
		zap.Int("rules", len(res.Rules)),
		zap.Int("warnings", len(res.Warnings)))

	return res, nil
}

// SortByID orders rules canonically by rule ID. The Merkle root is
// order-sensitive, so generation applies this when the canonical-order
// option is on to keep roots reproducible across platforms.
func SortByID(rs []Rule) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}

// contractDoc mirrors the SoT contract YAML layout.
type contractDoc struct {
	Rules []yaml.Node `yaml:"rules"`
}

type contractRule struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Priority    string `yaml:"priority"`
	Category    string `yaml:"category"`
	Framework   string `yaml:"framework"`
}

// parseContract reads one contract file. Rule entries are decoded through
// yaml.Node so each record keeps its source line for the proof metadata.
func parseContract(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc contractDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for i, node := range doc.Rules {
		var cr contractRule
		if err := node.Decode(&cr); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if cr.ID == "" {
			return nil, fmt.Errorf("rule %d: missing id", i)
		}
		rules = append(rules, Rule{
			ID:          cr.ID,
			Description: cr.Description,
			Priority:    cr.Priority,
			Category:    cr.Category,
			Framework:   cr.Framework,
			SourceFile:  path,
			LineNumber:  node.Line,
		})
	}
	return rules, nil
}
