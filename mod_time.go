package sightline

import (
	"time"
)

type Time struct {
	Time  time.Time
	Dt    time.Duration
	Frame uint64
}

// DeltaSeconds is Dt as float32 seconds, the unit every system integrates in.
func (t *Time) DeltaSeconds() float32 {
	return float32(t.Dt.Seconds())
}

// TimeModule advances Time once per frame. A non-zero FixedStep replaces the
// wall clock, which keeps scripted runs and tests deterministic.
type TimeModule struct {
	FixedStep time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})
	if mod.FixedStep > 0 {
		step := mod.FixedStep
		app.UseSystem(System(func(t *Time) { fixedTimeSystem(t, step) }).InStage(Prelude))
	} else {
		app.UseSystem(System(timeSystem).InStage(Prelude))
	}
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
	timeResource.Frame++
}

func fixedTimeSystem(timeResource *Time, step time.Duration) {
	timeResource.Dt = step
	timeResource.Time = timeResource.Time.Add(step)
	timeResource.Frame++
}
