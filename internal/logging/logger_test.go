package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medialink/internal/services"
)

func TestNewJSONHandlerRenamesCoreKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, levelVarFor(slog.LevelInfo)))

	logger.Info("hello", String("component", "test"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg"} {
		if _, ok := record[key]; !ok {
			t.Fatalf("record %v missing %q", record, key)
		}
	}
	if record["level"] != "info" {
		t.Fatalf("level = %v, want lowercase info", record["level"])
	}
	if record["msg"] != "hello" {
		t.Fatalf("msg = %v", record["msg"])
	}
}

func levelVarFor(level slog.Level) *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(level)
	return v
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "medialink.log")
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("file sink works")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "file sink works") {
		t.Fatalf("log file content = %q", content)
	}
}

func TestWithContextAddsDerivedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, levelVarFor(slog.LevelInfo)))

	ctx := services.WithFileID(context.Background(), 42)
	ctx = services.WithStage(ctx, "match")
	WithContext(ctx, logger).Info("staged")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if record[FieldFileID] != float64(42) {
		t.Fatalf("file_id = %v", record[FieldFileID])
	}
	if record[FieldStage] != "match" {
		t.Fatalf("stage = %v", record[FieldStage])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled at every level")
	}
}
