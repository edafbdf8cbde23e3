package log

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigureDefault(t *testing.T) {
	Configure(Options{})

	if Logger() == nil {
		t.Error("Logger should not be nil after Configure")
	}
}

func TestConfigureWithOutput(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf, Level: LevelInfo})

	Info("test message", "key", "value")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("log output = %q, want to contain %q", buf.String(), "test message")
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("non-terminal output contains ANSI escapes: %q", buf.String())
	}
}

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf, JSON: true, Level: LevelInfo})

	Info("json test")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestConfigureVerbose(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf, Verbose: true})

	Debug("debug message")

	if !strings.Contains(buf.String(), "debug message") {
		t.Error("debug should be visible with Verbose=true")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf, Level: LevelError})

	Info("should not appear")
	Warn("should not appear either")
	if buf.Len() > 0 {
		t.Errorf("unexpected output at error level: %q", buf.String())
	}

	Error("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Error("error should appear at error level")
	}
}

func TestConfigureFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "opsdesk.log")
	Configure(Options{Output: &buf, Level: LevelWarn, File: path})
	defer func() { _ = Close() }()

	Debug("file only")
	Warn("both sinks")

	if strings.Contains(buf.String(), "file only") {
		t.Error("debug record reached the warn-level console handler")
	}
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"file only", "both sinks"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q: %q", want, data)
		}
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf, Level: LevelInfo})

	With(Provider("github"), ItemID("github:a/b:issue:1")).Info("fetched")

	out := buf.String()
	for _, want := range []string{"provider=github", "item_id=github:a/b:issue:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestContextLogging(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf, Level: LevelDebug})

	DebugContext(context.Background(), "ctx debug")
	WarnContext(context.Background(), "ctx warn")

	for _, want := range []string{"ctx debug", "ctx warn"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != "error" {
		t.Errorf("Err().Key = %q, want error", attr.Key)
	}
}
