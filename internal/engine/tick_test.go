package engine

import (
	"context"
	"testing"
	"time"
)

func TestEngineStep(t *testing.T) {
	e := NewEngine()
	e.ReportEvery = 3

	var ticks []uint64
	var reports []uint64
	e.OnTick = func(tick uint64) { ticks = append(ticks, tick) }
	e.OnReport = func(tick uint64) { reports = append(reports, tick) }

	e.RunTicks(7)

	if e.Tick() != 7 {
		t.Errorf("expected tick 7, got %d", e.Tick())
	}
	if len(ticks) != 7 || ticks[0] != 1 || ticks[6] != 7 {
		t.Errorf("unexpected tick callbacks: %v", ticks)
	}
	if len(reports) != 2 || reports[0] != 3 || reports[1] != 6 {
		t.Errorf("unexpected report callbacks: %v", reports)
	}
}

func TestEngineResume(t *testing.T) {
	e := NewEngine()
	e.SetTick(100)
	if got := e.Step(); got != 101 {
		t.Errorf("expected 101, got %d", got)
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	e.SetSpeed(10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after cancel")
	}
	if e.Running() {
		t.Error("expected engine to report not running")
	}
	if e.Tick() == 0 {
		t.Error("expected at least one tick")
	}
}

func TestSimTime(t *testing.T) {
	tests := []struct {
		tick uint64
		want string
	}{
		{0, "Day 1, 0:00"},
		{61, "Day 1, 1:01"},
		{TicksPerSimDay, "Day 2, 0:00"},
		{TicksPerSimDay*3 + 125, "Day 4, 2:05"},
	}
	for _, tt := range tests {
		if got := SimTime(tt.tick); got != tt.want {
			t.Errorf("SimTime(%d) = %q, want %q", tt.tick, got, tt.want)
		}
	}
}
