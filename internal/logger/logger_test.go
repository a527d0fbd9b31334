// internal/logger/logger_test.go
//
// Unit-tests for the logger constructor and context helpers.

package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_WritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	log, err := New(Options{Dir: dir, Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Infow("hello", "k", "v")
	_ = log.Sync()

	want := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("log file %s missing: %v", want, err)
	}
}

func TestNew_RejectsBadLevel(t *testing.T) {
	if _, err := New(Options{Dir: t.TempDir(), Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core).Sugar()

	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Infow("attached")

	if logs.Len() != 1 || logs.All()[0].Message != "attached" {
		t.Fatalf("context logger not used, got %d entries", logs.Len())
	}

	if FromContext(context.Background()) == nil {
		t.Fatal("fallback logger is nil")
	}
}
