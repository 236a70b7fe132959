// Package merkle builds the proof-of-detection Merkle tree over ordered leaf
// hashes. Parent hashes are computed over the two children's hex strings
// concatenated as text (128 ASCII chars, UTF-8 encoded) rather than decoded
// bytes; changing that encoding would silently change every persisted root.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EmptyRoot is the sentinel root for a proof with zero rules.
var EmptyRoot = strings.Repeat("0", 64)

// Result holds the outcome of a tree build.
type Result struct {
	RootHash string
	Depth    int
}

// Build constructs a binary Merkle tree bottom-up from the ordered leaf hash
// list and returns the root hash and tree depth (levels above the leaves).
//
// Conventions:
//   - empty input yields EmptyRoot with depth 0 ("no rules = no proof")
//   - a single leaf is the root itself, unhashed, depth 0
//   - an odd-count level duplicates its last node to pair with itself
//
// Build is pure and order-sensitive: identical ordered input always yields
// the same root, and swapping two distinct leaves changes it. Leaf strings
// are not validated as hex; malformed input propagates into the tree.
func Build(leafHashes []string) Result {
	switch len(leafHashes) {
	case 0:
		return Result{RootHash: EmptyRoot, Depth: 0}
	case 1:
		return Result{RootHash: leafHashes[0], Depth: 0}
	}

	level := make([]string, len(leafHashes))
	copy(level, leafHashes)

	depth := 0
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashPair(level[i], level[i+1]))
		}
		level = next
		depth++
	}

	return Result{RootHash: level[0], Depth: depth}
}

// hashPair hashes two child hex strings as concatenated text.
func hashPair(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}

// HashLeaf computes the leaf hash for one rule: SHA-256 over the rule ID and
// its normalized content joined by "::", as text.
func HashLeaf(ruleID, normalizedContent string) string {
	sum := sha256.Sum256([]byte(ruleID + "::" + normalizedContent))
	return hex.EncodeToString(sum[:])
}
