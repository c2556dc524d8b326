package schema

import (
	"encoding/json"
	"reflect"
	"testing"
)

func parse(t *testing.T, raw string) map[string]any {
	t.Helper()
	var s map[string]any
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return s
}

func TestResolveRefsInlinesDefs(t *testing.T) {
	input := parse(t, `{
		"type": "object",
		"properties": {
			"step": {"$ref": "#/$defs/Step"},
			"steps": {"type": "array", "items": {"$ref": "#/$defs/Step"}}
		},
		"$defs": {
			"Step": {
				"type": "object",
				"properties": {"action": {"type": "string"}}
			}
		}
	}`)

	got := ResolveRefs(input)

	if _, ok := got["$defs"]; ok {
		t.Error("$defs survived resolution")
	}
	step := got["properties"].(map[string]any)["step"].(map[string]any)
	if step["type"] != "object" {
		t.Errorf("step = %v, want inlined definition", step)
	}
	items := got["properties"].(map[string]any)["steps"].(map[string]any)["items"].(map[string]any)
	if !reflect.DeepEqual(items, step) {
		t.Errorf("array items not inlined: %v", items)
	}
}

func TestResolveRefsCollapsesOptionalUnion(t *testing.T) {
	input := parse(t, `{
		"anyOf": [{"type": "string", "minLength": 1}, {"type": "null"}],
		"description": "optional name",
		"default": null,
		"title": "Name"
	}`)

	got := ResolveRefs(input)

	want := parse(t, `{
		"type": "string",
		"minLength": 1,
		"description": "optional name",
		"default": null,
		"title": "Name"
	}`)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collapsed union = %v, want %v", got, want)
	}
}

func TestResolveRefsSiblingKeysDoNotOverrideVariant(t *testing.T) {
	input := parse(t, `{
		"anyOf": [{"type": "string", "description": "from variant"}, {"type": "null"}],
		"description": "from union"
	}`)

	got := ResolveRefs(input)
	if got["description"] != "from variant" {
		t.Errorf("description = %v, variant keys must win", got["description"])
	}
}

func TestResolveRefsAllNullUnion(t *testing.T) {
	input := parse(t, `{"oneOf": [{"type": "null"}, {"type": "null"}]}`)

	got := ResolveRefs(input)
	if !reflect.DeepEqual(got, map[string]any{"type": "null"}) {
		t.Errorf("got %v, want {\"type\":\"null\"}", got)
	}
}

func TestResolveRefsLeavesUnknownRef(t *testing.T) {
	input := parse(t, `{"$ref": "#/components/schemas/X"}`)

	got := ResolveRefs(input)
	if got["$ref"] != "#/components/schemas/X" {
		t.Errorf("unknown ref changed: %v", got)
	}
}

func TestNormalizeArrayType(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{"null second", `{"type": ["string", "null"]}`, "string"},
		{"null first", `{"type": ["null", "integer"]}`, "integer"},
		{"all null", `{"type": ["null"]}`, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(parse(t, tt.in))
			if got["type"] != tt.want {
				t.Errorf("type = %v, want %v", got["type"], tt.want)
			}
		})
	}
}

func TestNormalizeAddsEmptyProperties(t *testing.T) {
	got := Normalize(parse(t, `{"type": "object"}`))

	props, ok := got["properties"].(map[string]any)
	if !ok || len(props) != 0 {
		t.Errorf("properties = %v, want empty object", got["properties"])
	}
}

func TestNormalizeNestedObjects(t *testing.T) {
	input := parse(t, `{
		"type": "object",
		"properties": {
			"inner": {"type": "object"},
			"list": {"type": "array", "items": {"type": "object"}},
			"map": {"type": "object", "additionalProperties": {"type": "object"}}
		}
	}`)

	got := Normalize(input)

	props := got["properties"].(map[string]any)
	inner := props["inner"].(map[string]any)
	if _, ok := inner["properties"]; !ok {
		t.Error("nested object missing properties")
	}
	items := props["list"].(map[string]any)["items"].(map[string]any)
	if _, ok := items["properties"]; !ok {
		t.Error("array item object missing properties")
	}
	additional := props["map"].(map[string]any)["additionalProperties"].(map[string]any)
	if _, ok := additional["properties"]; !ok {
		t.Error("additionalProperties object missing properties")
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	input := parse(t, `{"type": "object", "properties": {"a": {"type": "object"}}}`)
	before, _ := json.Marshal(input)

	Normalize(input)

	after, _ := json.Marshal(input)
	if string(before) != string(after) {
		t.Errorf("input mutated: %s -> %s", before, after)
	}
}

func TestResolveIdempotent(t *testing.T) {
	inputs := []string{
		`{
			"type": "object",
			"properties": {
				"name": {"anyOf": [{"type": "string"}, {"type": "null"}], "default": null},
				"step": {"$ref": "#/$defs/Step"},
				"tags": {"type": ["array", "null"], "items": {"type": "string"}}
			},
			"$defs": {
				"Step": {
					"type": "object",
					"properties": {
						"action": {"oneOf": [{"$ref": "#/$defs/Action"}, {"type": "null"}]}
					}
				},
				"Action": {"type": "string", "title": "Action"}
			}
		}`,
		`{"type": "object"}`,
		`{"oneOf": [{"type": "null"}]}`,
	}

	for _, raw := range inputs {
		once := Resolve(parse(t, raw))
		twice := Resolve(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Resolve not idempotent for %s:\nonce:  %v\ntwice: %v", raw, once, twice)
		}
	}
}
