package proof

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attestor/internal/merkle"
	"attestor/internal/rules"
)

// GeneratorConfig controls proof generation. It replaces the module-level
// constants of earlier tooling with explicit dependency injection.
type GeneratorConfig struct {
	// SortByRuleID pins the canonical leaf order before hashing so roots are
	// reproducible regardless of contract enumeration order. Verification is
	// unaffected either way: it always replays the persisted order.
	SortByRuleID bool

	// Now overrides the timestamp source in tests. Nil means time.Now.
	Now func() time.Time
}

// Generator builds proof documents from extracted rule sets.
type Generator struct {
	cfg    GeneratorConfig
	logger *zap.Logger
}

// NewGenerator creates a proof generator. A nil logger disables logging.
func NewGenerator(cfg GeneratorConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate hashes every rule into a leaf, builds the Merkle tree and
// assembles the proof document. It cannot fail: an empty rule set commits
// to the sentinel root, and loader warnings are carried on the document.
func (g *Generator) Generate(res *rules.Result) *Document {
	rs := res.Rules
	if g.cfg.SortByRuleID {
		rs = append([]rules.Rule(nil), rs...)
		rules.SortByID(rs)
	}

	leaves := make([]Leaf, 0, len(rs))
	hashes := make([]string, 0, len(rs))
	for _, r := range rs {
		content := r.NormalizedContent()
		h := merkle.HashLeaf(r.ID, content)
		leaves = append(leaves, Leaf{
			RuleID:            r.ID,
			NormalizedContent: content,
			Hash:              h,
			SourceFile:        r.SourceFile,
			LineNumber:        r.LineNumber,
		})
		hashes = append(hashes, h)
	}

	tree := merkle.Build(hashes)

	now := time.Now
	if g.cfg.Now != nil {
		now = g.cfg.Now
	}

	doc := &Document{
		ProofID:            uuid.NewString(),
		MerkleRoot:         tree.RootHash,
		TotalRules:         len(leaves),
		RuleHashes:         leaves,
		Timestamp:          now().UTC().Format(time.RFC3339),
		SourceFiles:        res.SourceFiles,
		TreeDepth:          tree.Depth,
		VerificationMethod: VerificationMethod,
		Warnings:           res.Warnings,
	}

	g.logger.Info("proof generated",
		zap.String("proof_id", doc.ProofID),
		zap.String("merkle_root", doc.MerkleRoot),
		zap.Int("total_rules", doc.TotalRules),
		zap.Int("tree_depth", doc.TreeDepth),
		zap.Bool("partial", doc.Partial()))

	return doc
}
