package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// ErrNotAnObject is returned by UnmarshalModelObject when the reply does not
// hold a JSON object.
var ErrNotAnObject = errors.New("model reply is not a JSON object")

// GenerateSchema returns the JSON schema of the type value points to, with
// additional properties disallowed and no $ref indirection, as structured
// output endpoints expect.
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

// UnmarshalModelObject decodes a structured reply such as
// {"answer": "...", "sources": [...]} into out. Chat models do not always
// honour the schema they are given, so the reply may be wrapped in a
// markdown fence, encoded a second time as a JSON string, opened with a
// doubled brace or syntactically broken (trailing commas, single quotes,
// missing closing brackets). Broken replies are fixed with jsonrepair.
func UnmarshalModelObject(reply string, out any) error {
	s := unfence(strings.TrimSpace(reply))

	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err == nil {
		s = unfence(strings.TrimSpace(inner))
	}
	s = dropDoubledBrace(s)

	if !strings.HasPrefix(s, "{") {
		return fmt.Errorf("%w: %.80q", ErrNotAnObject, s)
	}
	if err := json.Unmarshal([]byte(s), out); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return fmt.Errorf("failed to repair model reply: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("failed to decode repaired model reply %.200q: %w", repaired, err)
	}
	return nil
}

// unfence strips a surrounding ``` or ```json fence.
func unfence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func dropDoubledBrace(s string) string {
	if !strings.HasPrefix(s, "{") {
		return s
	}
	if rest := strings.TrimSpace(s[1:]); strings.HasPrefix(rest, "{") {
		return rest
	}
	return s
}
