package logger

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ZSC714725/lithographer/internal/console"
)

type memSink struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (s *memSink) Write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line)
	return nil
}

func TestHubFansOut(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ring := console.NewRing(8)
	sink := &memSink{}

	hub := NewHub(ring, sink, zap.New(core))
	log := hub.New("ffmpeg")

	log.Info("frame=%d", 10)
	log.Warn("slow")
	log.Error("broken %s", "pipe")
	log.Debug("internal")

	want := []string{
		"[ffmpeg] (Info) frame=10",
		"[ffmpeg] (Warning) slow",
		"[ffmpeg] (Error) broken pipe",
	}
	if len(sink.lines) != len(want) {
		t.Fatalf("file got %v", sink.lines)
	}
	for i := range want {
		if sink.lines[i] != want[i] {
			t.Fatalf("file line %d = %q, want %q", i, sink.lines[i], want[i])
		}
	}

	lines := ring.Snapshot()
	if len(lines) != 3 {
		t.Fatalf("ring has %d lines, want 3", len(lines))
	}
	if lines[1].Severity != console.Warning || lines[2].Severity != console.Error {
		t.Fatalf("unexpected severities: %+v", lines)
	}
	if lines[0].Prefix != "ffmpeg" {
		t.Fatalf("unexpected prefix %q", lines[0].Prefix)
	}

	if logs.Len() != 4 {
		t.Fatalf("zap got %d entries, want 4", logs.Len())
	}
	entry := logs.All()[2]
	if entry.Level != zapcore.ErrorLevel || entry.Message != "broken pipe" {
		t.Fatalf("unexpected zap entry %+v", entry)
	}
	if entry.ContextMap()["prefix"] != "ffmpeg" {
		t.Fatalf("missing prefix field: %v", entry.ContextMap())
	}
}

func TestHubToleratesMissingSinks(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	hub.New("x").Info("nothing breaks")
}

func TestHubKeepsRingWhenFileFails(t *testing.T) {
	ring := console.NewRing(2)
	hub := NewHub(ring, &memSink{err: errors.New("closed")}, nil)
	hub.New("x").Info("still shown")

	if ring.Len() != 1 {
		t.Fatalf("ring has %d lines, want 1", ring.Len())
	}
}

func TestNewZapRejectsBadLevel(t *testing.T) {
	if _, err := NewZap("loud", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
	z, err := NewZap("debug", true)
	if err != nil {
		t.Fatalf("NewZap: %v", err)
	}
	_ = z.Sync()
}
