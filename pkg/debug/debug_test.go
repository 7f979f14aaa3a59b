package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogDisabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)

	Log("hidden %d", 1)
	LogIf(true, "hidden")
	LogTiming("x", time.Millisecond)
	LogEnterExit("x")()

	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got %q", buf.String())
	}
}

func TestLogEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(true)
	defer SetEnabled(false)

	Log("loaded %d nodes", 3)
	LogIf(false, "skipped")
	LogIf(true, "kept")

	out := buf.String()
	if !strings.Contains(out, "loaded 3 nodes") {
		t.Errorf("expected formatted message, got %q", out)
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("expected LogIf(false) to be silent, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("expected LogIf(true) output, got %q", out)
	}
	if !strings.Contains(out, prefix) {
		t.Errorf("expected prefix %q, got %q", prefix, out)
	}
}

func TestLogEnterExit(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(true)
	defer SetEnabled(false)

	LogEnterExit("Refresh")()

	out := buf.String()
	if !strings.Contains(out, "-> Refresh") || !strings.Contains(out, "<- Refresh") {
		t.Errorf("expected enter and exit lines, got %q", out)
	}
}
