package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(Config{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestInitializeReplacesGlobal(t *testing.T) {
	old := Logger
	defer func() { Logger, Sugar = old, old.Sugar() }()

	cfg := DefaultConfig()
	cfg.Format = "json"
	if err := Initialize(cfg); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if Logger == old {
		t.Error("expected global logger to change")
	}
	if !Logger.Core().Enabled(zapcore.InfoLevel) || Logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected info level")
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zapcore.DebugLevel)
	l.Debug("fitted", zap.Float64("r2", 0.99))
	if !strings.Contains(buf.String(), "fitted") || !strings.Contains(buf.String(), "r2") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected non-nil logger")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Error("expected the same logger back")
	}
}
