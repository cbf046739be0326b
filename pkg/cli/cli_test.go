package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("storage.backend", "unknown backend")
	if !strings.Contains(err.Error(), "storage.backend") {
		t.Errorf("error %q should mention the field", err.Error())
	}

	bare := NewConfigError("", "file missing")
	if !strings.Contains(bare.Error(), "file missing") {
		t.Errorf("error %q should carry the message", bare.Error())
	}
}

func TestCommandErrorUnwraps(t *testing.T) {
	cause := errors.New("listen failed")
	err := NewCommandError("run", cause)
	if !errors.Is(err, cause) {
		t.Error("CommandError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "run") {
		t.Errorf("error %q should mention the command", err.Error())
	}
}

func TestJSONFormatter(t *testing.T) {
	formatter := NewFormatter(FormatJSON)

	data := map[string]int{"total": 3}
	var buf bytes.Buffer
	if err := formatter.FormatTo(&buf, data); err != nil {
		t.Fatalf("FormatTo: %v", err)
	}

	var out map[string]int
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out["total"] != 3 {
		t.Errorf("total = %d, want 3", out["total"])
	}
}

func TestTextFormatterIsDefault(t *testing.T) {
	formatter := NewFormatter("yaml")
	if _, ok := formatter.(*TextFormatter); !ok {
		t.Errorf("unknown format should fall back to text, got %T", formatter)
	}
}

func TestProgressRendersBar(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 10)

	progress.Advance(5)
	progress.Done()

	out := buf.String()
	if !strings.Contains(out, "5/10 deals") {
		t.Errorf("output %q should show the midpoint count", out)
	}
	if !strings.Contains(out, "10/10 deals") {
		t.Errorf("output %q should reach the final count", out)
	}
	if !strings.Contains(out, " in ") {
		t.Errorf("output %q should report elapsed time", out)
	}
}

func TestProgressAdvanceClampsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 4)

	progress.Advance(10)
	if !strings.Contains(buf.String(), "4/4 deals") {
		t.Errorf("output %q should clamp at the total", buf.String())
	}
}
