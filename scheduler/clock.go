package scheduler

import "time"

// Clock is an interface for getting the current time and arming timers.
//
// Times returned by Now must carry a monotonic reading when deadlines are
// compared across wall-clock adjustments, as time.Now does.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a timer armed by a Clock.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer has
	// already fired or been stopped.
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the default clock that uses time.Now and time.AfterFunc.
var SystemClock Clock = systemClock{}
