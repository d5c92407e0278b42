package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestGetLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		" Info ":  "INFO",
		"warning": "WARN",
		"ERROR":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for in, want := range tests {
		if got := GetLevel(in); got != want {
			t.Errorf("GetLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info("skipped")
	if buf.Len() != 0 {
		t.Fatalf("info record written at warn level: %s", buf.String())
	}

	log.Warn("kept", "application_id", 7)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "kept" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["application_id"] != float64(7) {
		t.Errorf("application_id = %v", rec["application_id"])
	}
	if ts, ok := rec["time"].(string); !ok || len(ts) != len("2006-01-02 15:04:05") {
		t.Errorf("time = %v", rec["time"])
	}
}

func TestSetup_SetsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup(Config{Level: "debug", Output: &buf})
	slog.Debug("hello")
	if buf.Len() == 0 {
		t.Error("default logger did not write debug record")
	}
}
