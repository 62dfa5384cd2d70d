package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const startSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["duration", "step", "mbti"],
  "properties": {
    "duration": {"type": "integer", "minimum": 1},
    "step": {"type": "integer", "minimum": 1},
    "eq_step": {"type": "integer", "minimum": 1},
    "year": {"type": "integer"},
    "month": {"type": "integer", "minimum": 1, "maximum": 12},
    "day": {"type": "integer", "minimum": 1, "maximum": 31},
    "hour": {"type": "integer", "minimum": 0, "maximum": 23},
    "minute": {"type": "integer", "minimum": 0, "maximum": 59},
    "mbti": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "pattern": "^[EI][NS][TF][JP]$"}
    },
    "locations": {"type": "array", "items": {"type": "string"}},
    "initial_positions": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "eq_enabled": {"type": "boolean"},
    "eq_json": {"type": "string"},
    "use_default_calendar": {"type": "boolean"},
    "max_chat_groups": {"type": "integer"},
    "step_sync": {"type": "boolean"}
  }
}`

var startSchema = jsonschema.MustCompileString("start_simulation.json", startSchemaJSON)

// validateStart checks a raw start_simulation params document against the
// schema before decoding.
func validateStart(raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("start_simulation: missing params")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("start_simulation: malformed params: %w", err)
	}
	if err := startSchema.Validate(doc); err != nil {
		return fmt.Errorf("start_simulation: invalid params: %w", err)
	}
	return nil
}
