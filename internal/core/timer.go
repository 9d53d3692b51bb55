package core

import "time"

// FixedStep paces simulation ticks at a steady rate independent of the
// frame rate of whichever viewer drives it.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	paused      bool

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewFixedStep constructs a FixedStep targeting tps ticks per second. The
// first call to ShouldStep fires immediately.
func NewFixedStep(tps int) *FixedStep {
	fs := &FixedStep{Now: time.Now}
	fs.SetTPS(tps)
	fs.accumulator = fs.step
	return fs
}

// SetTPS changes the tick rate. Non-positive rates fall back to 60.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		tps = 60
	}
	f.step = time.Second / time.Duration(tps)
}

// TPS reports the current tick rate.
func (f *FixedStep) TPS() int { return int(time.Second / f.step) }

// Interval is the duration of one tick.
func (f *FixedStep) Interval() time.Duration { return f.step }

// SetPaused stops or resumes accumulation. Time spent paused is discarded.
func (f *FixedStep) SetPaused(p bool) {
	f.paused = p
	f.last = time.Time{}
}

// Paused reports whether the timer is paused.
func (f *FixedStep) Paused() bool { return f.paused }

// ShouldStep reports whether the simulation should advance by one tick.
// Call it once per frame; a slow frame carries its surplus into the next.
func (f *FixedStep) ShouldStep() bool {
	if f.paused {
		return false
	}
	now := f.Now()
	if f.last.IsZero() {
		f.last = now
	}
	f.accumulator += now.Sub(f.last)
	f.last = now
	if f.accumulator >= f.step {
		f.accumulator -= f.step
		return true
	}
	return false
}
