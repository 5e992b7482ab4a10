package playback

import "time"

// Scheduler runs f once after d. The returned cancel function prevents f
// from running if it has not started yet and reports whether it did so.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func() bool)
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(d time.Duration, f func()) func() bool

// AfterFunc calls fn(d, f).
func (fn SchedulerFunc) AfterFunc(d time.Duration, f func()) func() bool { return fn(d, f) }

// RealTime schedules with [time.AfterFunc].
var RealTime Scheduler = SchedulerFunc(func(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
})
