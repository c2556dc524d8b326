package translate

import "testing"

func TestEnsureJSONObjectString(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, `{}`},
		{"empty string", "", `{}`},
		{"object string", `{"a": 1}`, `{"a":1}`},
		{"double encoded", `"{\"a\": 1}"`, `{"a":1}`},
		{"map", map[string]any{"ok": true}, `{"ok":true}`},
		{"bytes", []byte(`{"b":2}`), `{"b":2}`},
		{"scalar string", "42", `{"result":42}`},
		{"plain text", "it worked", `{"result":"it worked"}`},
		{"python dict literal", `{'status': True, 'err': None}`, `{"err":null,"status":true}`},
		{"list value", []any{1, 2}, `{"result":[1,2]}`},
		{"whitespace only", "   ", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureJSONObjectString(tt.value); got != tt.want {
				t.Errorf("EnsureJSONObjectString(%v) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestToolNameAliasRoundTrip(t *testing.T) {
	aliased := ToBackendToolName("web_search")
	if aliased == "web_search" {
		t.Fatal("reserved name was not aliased")
	}
	if got := FromBackendToolName(aliased); got != "web_search" {
		t.Errorf("round trip = %q, want web_search", got)
	}
}

func TestToolNameAliasPassthrough(t *testing.T) {
	if got := ToBackendToolName("get_weather"); got != "get_weather" {
		t.Errorf("ToBackendToolName(get_weather) = %q", got)
	}
	if got := FromBackendToolName("get_weather"); got != "get_weather" {
		t.Errorf("FromBackendToolName(get_weather) = %q", got)
	}
}
