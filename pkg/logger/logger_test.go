package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerUnknownFormat(t *testing.T) {
	if err := InitWithWriter(&bytes.Buffer{}, "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerFieldsAndSource(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, "text"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "simulation started", String("fault", "None"), Bool("running", true), Error(errors.New("boom")))

	out := buf.String()
	for _, want := range []string{"simulation started", "fault=None", "running=true", "error=boom", "source=logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, "json"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("ticker").With(Int("interval_ms", 1000)).Warn(context.Background(), "tick crashed")

	out := buf.String()
	for _, want := range []string{`"component":"ticker"`, `"interval_ms":1000`, `"msg":"tick crashed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, "text"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		if err := SetLevelString(in); err != nil {
			t.Fatalf("SetLevelString(%q): %v", in, err)
		}
		if Level() != want {
			t.Errorf("SetLevelString(%q) level = %v, want %v", in, Level(), want)
		}
	}

	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}

	_ = SetLevelString("warn")
	Get().Info(context.Background(), "hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message logged at warn level")
	}
}
