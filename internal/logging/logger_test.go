package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	var buf bytes.Buffer
	logger := slog.New(NewJSONHandler(&buf))

	SetLevel("warn")
	logger.Info("skipped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "skipped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn level output = %q", buf.String())
	}

	buf.Reset()
	SetLevel("DEBUG")
	logger.Debug("debugging")
	if !strings.Contains(buf.String(), "debugging") {
		t.Errorf("debug level output = %q", buf.String())
	}

	buf.Reset()
	SetLevel("nonsense")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("unknown level should fall back to info, got %q", buf.String())
	}
}
