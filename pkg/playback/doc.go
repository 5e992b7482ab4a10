// Package playback navigates a [trace.Trace] one step at a time.
//
// A [Controller] owns a position in the range [-1, len-1], where -1 means no
// step is displayed yet. Callers step forward and backward by hand or start
// auto-play, which advances one step per delay until the last step is
// reached and then stops itself.
//
// # Timer Discipline
//
// At most one advance is pending at any time. Every navigation call cancels
// the pending advance before it changes the position, and a cancelled
// advance never fires: each scheduled callback carries a generation number
// and does nothing if the controller has moved on.
//
// # Time
//
// The controller schedules through a [Scheduler]. The default uses
// [time.AfterFunc]; tests pass a fake to drive time explicitly.
//
// # Concurrency
//
// Controller methods are safe for concurrent use. The OnAdvance callback
// runs on the timer goroutine after the controller's lock is released.
package playback
