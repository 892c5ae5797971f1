package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTextHandler_SimpleFormat(t *testing.T) {
	var sb strings.Builder
	h := &textHandler{
		handler: slog.NewTextHandler(&sb, nil),
		writer:  &sb,
	}

	record := slog.NewRecord(time.Time{}, slog.LevelWarn, "disk nearly full", 0)
	record.AddAttrs(slog.String("path", "/data"))

	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("handle: %v", err)
	}

	out := sb.String()
	if !strings.HasPrefix(out, "WARN disk nearly full") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "path=/data") {
		t.Errorf("missing attribute in %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("color codes in non-terminal output %q", out)
	}
}

func TestFilteringHandler_DropsForeignRecordsAboveDebug(t *testing.T) {
	var sb strings.Builder
	inner := &textHandler{handler: slog.NewTextHandler(&sb, nil), writer: &sb}
	h := &filteringHandler{handler: inner, minLevel: slog.LevelInfo}

	// PC 0 means the caller is unknown, which counts as third-party.
	record := slog.NewRecord(time.Time{}, slog.LevelInfo, "driver chatter", 0)
	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sb.Len() != 0 {
		t.Errorf("expected foreign record to be dropped, got %q", sb.String())
	}
}

func TestFilteringHandler_DebugPassesEverything(t *testing.T) {
	var sb strings.Builder
	inner := &textHandler{handler: slog.NewTextHandler(&sb, nil), writer: &sb}
	h := &filteringHandler{handler: inner, minLevel: slog.LevelDebug}

	record := slog.NewRecord(time.Time{}, slog.LevelInfo, "driver chatter", 0)
	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(sb.String(), "driver chatter") {
		t.Errorf("expected record to pass in debug mode, got %q", sb.String())
	}
}
