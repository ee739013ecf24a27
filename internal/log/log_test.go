// ABOUTME: Tests for the logging package
// ABOUTME: Validates level filtering, named loggers, and file output

package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	saved := GetLevel()
	t.Cleanup(func() {
		SetLevel(saved)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetLevel(t *testing.T) {
	capture(t)

	SetLevel(LevelDebug)
	if GetLevel() != LevelDebug {
		t.Errorf("GetLevel() = %v; want debug", GetLevel())
	}

	SetLevel(LevelError)
	if GetLevel() != LevelError {
		t.Errorf("GetLevel() = %v; want error", GetLevel())
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelInfo)

	Debug("this should be suppressed: %s", "test")
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestAllLevels(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelDebug)

	Debug("debug: %d", 1)
	Info("info: %d", 2)
	Warn("warn: %d", 3)
	Error("error: %d", 4)

	out := buf.String()
	for _, want := range []string{"DEBUG", "debug: 1", "INFO", "info: 2", "WARN", "warn: 3", "ERROR", "error: 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNamed(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelInfo)

	Named("rpc").Infow("connected", "addr", "/tmp/x.sock")

	out := buf.String()
	if !strings.Contains(out, "rpc") || !strings.Contains(out, "/tmp/x.sock") {
		t.Errorf("named output = %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	if err != nil || l != LevelWarn {
		t.Errorf("ParseLevel(warn) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}
}

func TestSetFile(t *testing.T) {
	capture(t)
	SetLevel(LevelInfo)

	path := filepath.Join(t.TempDir(), "maude.log")
	if err := SetFile(path); err != nil {
		t.Fatalf("SetFile: %v", err)
	}
	Info("to file")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
}
