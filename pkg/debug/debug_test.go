package debug

import (
	"log/slog"
	"testing"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]bool
	}{
		{"empty", "", map[string]bool{}},
		{"single", "backend", map[string]bool{"backend": true}},
		{"multiple", "backend,protocol", map[string]bool{"backend": true, "protocol": true}},
		{"with spaces", " backend , streaming ", map[string]bool{"backend": true, "streaming": true}},
		{"uppercase normalized", "BACKEND,Protocol", map[string]bool{"backend": true, "protocol": true}},
		{"empty segments", "backend,,protocol", map[string]bool{"backend": true, "protocol": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCategories(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for k := range tt.want {
				if !got[k] {
					t.Errorf("category %q missing", k)
				}
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("backend,streaming")
	if !Enabled("backend") || !Enabled("streaming") {
		t.Error("listed categories must be enabled")
	}
	if Enabled("attachments") {
		t.Error("attachments must not be enabled")
	}

	categories = parseCategories("all")
	if !Enabled("backend") || !Enabled("anything") {
		t.Error("all must enable every category")
	}

	categories = parseCategories("")
	if Enabled("backend") {
		t.Error("nothing enabled when unset")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"TRACE", LevelTrace},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("this is a long string", 10); got != "this is a ..." {
		t.Errorf("Truncate = %q", got)
	}
}

func TestLogDisabledCategory(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()
	categories = parseCategories("")

	// Must be a silent no-op.
	Log("backend", "message", "key", "value")
	Trace("backend", "message", "key", "value")
}
