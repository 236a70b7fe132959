// Package registry keeps an append-only SQLite record of audit runs and a
// per-rule hash chain. Where the proof JSON on disk is overwritten wholesale
// by each generation run, the registry preserves history: every run appends
// one chain link per rule, and chains can be replayed later to detect
// tampering with recorded history.
package registry

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"attestor/internal/merkle"
	"attestor/internal/proof"
)

// Store manages the audit-run registry database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open creates or opens the registry database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	-- One row per generation run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		recorded_at DATETIME NOT NULL,
		merkle_root TEXT NOT NULL,
		total_rules INTEGER NOT NULL,
		tree_depth INTEGER NOT NULL,
		partial INTEGER NOT NULL DEFAULT 0
	);

	-- Append-only per-rule hash chain; seq increments per rule
	CREATE TABLE IF NOT EXISTS chain_links (
		run_id TEXT NOT NULL,
		rule_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		leaf_hash TEXT NOT NULL,
		prev_chain_hash TEXT NOT NULL,
		chain_hash TEXT NOT NULL,
		PRIMARY KEY (rule_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_chain_links_run ON chain_links(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Run is one recorded generation run.
type Run struct {
	ID         string
	RecordedAt time.Time
	MerkleRoot string
	TotalRules int
	TreeDepth  int
	Partial    bool
}

// Record appends one run and one chain link per rule. Each link's chain hash
// extends that rule's previous link: SHA-256 over the previous chain hash and
// the new leaf hash concatenated as hex text, the same encoding the Merkle
// tree uses. The first link of a rule chains from the 64-zero sentinel.
func (s *Store) Record(doc *proof.Document) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	run := &Run{
		ID:         doc.ProofID,
		RecordedAt: time.Now().UTC(),
		MerkleRoot: doc.MerkleRoot,
		TotalRules: doc.TotalRules,
		TreeDepth:  doc.TreeDepth,
		Partial:    doc.Partial(),
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	if _, err := tx.Exec(
		`INSERT INTO runs (id, recorded_at, merkle_root, total_rules, tree_depth, partial)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.RecordedAt, run.MerkleRoot, run.TotalRules, run.TreeDepth, run.Partial,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	for _, leaf := range doc.RuleHashes {
		var seq int
		var prev string
		err := tx.QueryRow(
			`SELECT seq, chain_hash FROM chain_links WHERE rule_id = ? ORDER BY seq DESC LIMIT 1`,
			leaf.RuleID,
		).Scan(&seq, &prev)
		switch {
		case err == sql.ErrNoRows:
			seq, prev = 0, merkle.EmptyRoot
		case err != nil:
			return nil, fmt.Errorf("read chain head for %s: %w", leaf.RuleID, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO chain_links (run_id, rule_id, seq, leaf_hash, prev_chain_hash, chain_hash)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, leaf.RuleID, seq+1, leaf.Hash, prev, chainHash(prev, leaf.Hash),
		); err != nil {
			return nil, fmt.Errorf("append chain link for %s: %w", leaf.RuleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently recorded run, or nil when the registry
// is empty.
func (s *Store) LatestRun() (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, recorded_at, merkle_root, total_rules, tree_depth, partial
		 FROM runs ORDER BY recorded_at DESC, rowid DESC LIMIT 1`)

	var r Run
	err := row.Scan(&r.ID, &r.RecordedAt, &r.MerkleRoot, &r.TotalRules, &r.TreeDepth, &r.Partial)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest run: %w", err)
	}
	return &r, nil
}

// RunCount returns the number of recorded runs.
func (s *Store) RunCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// chainHash extends a rule's chain: hex strings concatenated as text.
func chainHash(prevChain, leafHash string) string {
	sum := sha256.Sum256([]byte(prevChain + leafHash))
	return hex.EncodeToString(sum[:])
}
