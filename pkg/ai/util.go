package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema creates a JSON Schema from the given Go type, suitable
// for constraining structured model output. Pointer types are
// dereferenced before reflection.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return reflector.Reflect(reflect.New(t).Interface())
}

// UnmarshalFlexible parses model-generated JSON into out, tolerating the
// drift models produce: markdown code fences around the payload,
// double-encoded JSON strings, a duplicated opening brace, and malformed
// JSON that jsonrepair can fix. Strict parsing runs first; each fallback
// only runs when the stricter attempt failed.
func UnmarshalFlexible(input string, out any) error {
	input = stripCodeFence(strings.TrimSpace(input))

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	// double-encoded: the payload is a JSON string containing JSON
	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	input = stripDuplicateLeadingBrace(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
	}

	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("unmarshal failed after repair: input=%s repaired=%s", input, repaired)
	}
	return nil
}

// stripCodeFence removes a surrounding markdown fence, with or without a
// language tag.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[idx+1:]
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	return strings.TrimSpace(rest)
}

func stripDuplicateLeadingBrace(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		rest := strings.TrimSpace(s[1:])
		if strings.HasPrefix(rest, "{") {
			return rest
		}
	}
	return s
}
