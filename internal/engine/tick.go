// Package engine provides the tick-based simulation loop, the per-player
// input queue and the Simulation that drives every agent's health model.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TickSchedule: one tick is one sim-minute.
const (
	TicksPerSimHour = 60   // 60 ticks = 1 sim-hour
	TicksPerSimDay  = 1440 // 24 hours × 60
)

// Engine drives the simulation forward.
type Engine struct {
	mu       sync.Mutex
	tick     uint64        // Current tick counter (monotonic, never resets)
	speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	running  bool
	Interval time.Duration // Base tick interval (default 1 second)

	// ReportEvery is the number of ticks between OnReport calls (0 disables).
	ReportEvery uint64

	// Callbacks populated during setup.
	OnTick   func(tick uint64) // Every tick
	OnReport func(tick uint64) // Every ReportEvery ticks
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		speed:       1.0,
		Interval:    time.Second,
		ReportEvery: TicksPerSimDay,
	}
}

// Tick returns the last completed tick.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// SetTick sets the counter (used when resuming a saved run).
func (e *Engine) SetTick(tick uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tick = tick
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero or less pauses the loop.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = speed
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run starts the real-time loop. Blocks until ctx is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed())

	for e.Running() {
		if ctx.Err() != nil {
			e.Stop()
			break
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused, sleep briefly and check again.
			sleepCtx(ctx, 100*time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			sleepCtx(ctx, target-elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick())
}

// RunTicks advances n ticks as fast as possible, ignoring speed.
func (e *Engine) RunTicks(n uint64) {
	for i := uint64(0); i < n; i++ {
		e.Step()
	}
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Step advances the simulation by one tick and returns the new tick number.
func (e *Engine) Step() uint64 {
	e.mu.Lock()
	e.tick++
	tick := e.tick
	e.mu.Unlock()

	if e.OnTick != nil {
		e.OnTick(tick)
	}

	if e.ReportEvery > 0 && tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(tick)
	}

	return tick
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// SimTime returns a human-readable simulation time string from a tick number.
func SimTime(tick uint64) string {
	minutes := tick % 60
	totalHours := tick / 60
	hours := totalHours % 24
	days := totalHours/24 + 1

	return fmt.Sprintf("Day %d, %d:%02d", days, hours, minutes)
}
