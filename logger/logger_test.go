package logger_test

import (
	"testing"

	"github.com/evdnx/golog"

	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/testutils"
)

func TestMockLoggerRecords(t *testing.T) {
	l := testutils.NewMockLogger()
	l.Info("hello", golog.String("k", "v"))
	if got := l.LastMessage(); got != "hello" {
		t.Fatalf("expected last message 'hello', got %q", got)
	}
	l.Warn("careful")
	l.Error("boom")
	if got := l.Messages("warn"); len(got) != 1 || got[0] != "careful" {
		t.Fatalf("warn messages = %v", got)
	}
}

func TestNewWithLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		l, err := logger.NewWithLevel(level)
		if err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
		if l == nil {
			t.Fatalf("level %q: nil logger", level)
		}
	}
}
