package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleHandlerRendersComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	scoped := NewComponentLogger(logger, "builder")
	scoped.Info("skipping member", String(FieldFile, "wavs/a.npy"), Int("line", 3))

	line := buf.String()
	if !strings.Contains(line, " INFO builder: skipping member") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "file=wavs/a.npy") {
		t.Fatalf("expected file attr in %q", line)
	}
	if !strings.Contains(line, "line=3") {
		t.Fatalf("expected line attr in %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("missing text", String("text", "hello world"))
	if !strings.Contains(buf.String(), `text="hello world"`) {
		t.Fatalf("expected quoted value in %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn line should be present: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("packed group", String(FieldGroup, "speaker1"))
	out := buf.String()
	if !strings.Contains(out, `"msg":"packed group"`) {
		t.Fatalf("unexpected json output: %q", out)
	}
	if !strings.Contains(out, `"group":"speaker1"`) {
		t.Fatalf("expected group attr: %q", out)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := New(Options{Format: "logfmt"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
