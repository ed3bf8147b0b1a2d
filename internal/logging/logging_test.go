package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Level: "warn"})

	logger.Info("hidden")
	logger.Warn("task conflict", "task", "t-1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "task conflict") || !strings.Contains(out, "task=t-1") {
		t.Fatalf("expected structured warn line, got %q", out)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Level: "loud"})
	logger.Debug("debug line")
	logger.Info("info line")

	if strings.Contains(buf.String(), "debug line") || !strings.Contains(buf.String(), "info line") {
		t.Fatalf("expected info level, got %q", buf.String())
	}
}

func TestNewFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lazyplan.log")
	logger, closer, err := NewFile(path, "info")
	if err != nil {
		t.Fatalf("new file logger: %v", err)
	}
	logger.Info("started")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "started") {
		t.Fatalf("expected log line in file, got %q", data)
	}

	if _, closer, err := NewFile("", "info"); err != nil || closer.Close() != nil {
		t.Fatalf("expected discard logger, got %v", err)
	}
}
