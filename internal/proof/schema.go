package proof

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema constrains persisted proof documents. Leaf hashes and the
// root must be 64 lowercase hex chars; the sentinel root for empty proofs
// already matches that pattern.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["merkle_root", "total_rules", "rule_hashes", "tree_depth", "verification_method"],
  "properties": {
    "proof_id": {"type": "string"},
    "merkle_root": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
    "total_rules": {"type": "integer", "minimum": 0},
    "tree_depth": {"type": "integer", "minimum": 0},
    "timestamp": {"type": "string"},
    "verification_method": {"type": "string"},
    "source_files": {"type": ["array", "null"], "items": {"type": "string"}},
    "warnings": {"type": ["array", "null"], "items": {"type": "string"}},
    "rule_hashes": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["rule_id", "hash"],
        "properties": {
          "rule_id": {"type": "string", "minLength": 1},
          "normalized_content": {"type": "string"},
          "hash": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
          "source_file": {"type": "string"},
          "line_number": {"type": "integer"}
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("proof.schema.json", documentSchema)

// validateSchema checks raw proof JSON against the document schema.
func validateSchema(data []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		return err
	}
	return nil
}
