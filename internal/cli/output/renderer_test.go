package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		want Mode
	}{
		{"explicit text", ModeText, ModeText},
		{"explicit markdown", ModeMarkdown, ModeMarkdown},
		{"explicit json", ModeJSON, ModeJSON},
		// A bytes.Buffer is not a terminal, so auto resolves to markdown.
		{"auto on non-tty", ModeAuto, ModeMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errW bytes.Buffer
			r := NewRenderer(&out, &errW, tt.mode)
			if got := r.EffectiveMode(); got != tt.want {
				t.Errorf("EffectiveMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRenderer_EmptyModeDefaultsToAuto(t *testing.T) {
	var out, errW bytes.Buffer
	r := NewRenderer(&out, &errW, "")
	if r.EffectiveMode() != ModeMarkdown {
		t.Errorf("empty mode on a buffer should resolve to markdown, got %q", r.EffectiveMode())
	}
}

func TestHeader(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		var out, errW bytes.Buffer
		r := NewRenderer(&out, &errW, ModeMarkdown)
		r.Header(2, "Missing Values")
		if !strings.Contains(out.String(), "## Missing Values") {
			t.Errorf("markdown header missing, got %q", out.String())
		}
	})

	t.Run("json is silent", func(t *testing.T) {
		var out, errW bytes.Buffer
		r := NewRenderer(&out, &errW, ModeJSON)
		r.Header(1, "Title")
		if out.Len() != 0 {
			t.Errorf("JSON mode should not print headers, got %q", out.String())
		}
	})
}

func TestTable(t *testing.T) {
	headers := []string{"Column", "Nulls"}
	rows := [][]string{{"Gender", "9536"}, {"CustomValueEstimate", "779642"}}

	t.Run("markdown", func(t *testing.T) {
		var out, errW bytes.Buffer
		r := NewRenderer(&out, &errW, ModeMarkdown)
		r.Table(headers, rows)
		got := out.String()
		for _, want := range []string{"Column", "Gender", "9536", "|"} {
			if !strings.Contains(got, want) {
				t.Errorf("markdown table missing %q in:\n%s", want, got)
			}
		}
	})

	t.Run("text", func(t *testing.T) {
		var out, errW bytes.Buffer
		r := NewRenderer(&out, &errW, ModeText)
		r.Table(headers, rows)
		if !strings.Contains(out.String(), "Gender") {
			t.Errorf("text table missing data:\n%s", out.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var out, errW bytes.Buffer
		r := NewRenderer(&out, &errW, ModeJSON)
		r.Table(headers, rows)

		var decoded []map[string]string
		if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
			t.Fatalf("JSON table output does not parse: %v\n%s", err, out.String())
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 objects, got %d", len(decoded))
		}
		if decoded[0]["Column"] != "Gender" || decoded[0]["Nulls"] != "9536" {
			t.Errorf("unexpected first object: %v", decoded[0])
		}
	})
}

func TestJSON(t *testing.T) {
	var out, errW bytes.Buffer
	r := NewRenderer(&out, &errW, ModeText)
	r.JSON(map[string]int{"rows": 42})

	var decoded map[string]int
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("output does not parse as JSON: %v", err)
	}
	if decoded["rows"] != 42 {
		t.Errorf("rows = %d, want 42", decoded["rows"])
	}
}

func TestSuccessAndError(t *testing.T) {
	var out, errW bytes.Buffer
	r := NewRenderer(&out, &errW, ModeMarkdown)

	r.Successf("loaded %d rows", 10)
	if !strings.Contains(out.String(), "loaded 10 rows") {
		t.Errorf("success message missing: %q", out.String())
	}

	r.Errorf("bad input: %s", "claims.csv")
	if !strings.Contains(errW.String(), "bad input: claims.csv") {
		t.Errorf("error message should go to the error stream: %q", errW.String())
	}
	if strings.Contains(out.String(), "bad input") {
		t.Error("error message leaked to the output stream")
	}
}
