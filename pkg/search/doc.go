// Package search models the keystroke-to-request lifecycle of a searchable
// field as an explicit state machine: trailing debounce, monotonically
// increasing request ids, and stale-result suppression so only the most
// recent request's outcome is ever applied. The controller is pure state; it
// consumes discrete events (keystroke, timer fire, completion) and never owns
// timers or goroutines itself, which keeps the sequencing rules testable with
// a hand-driven clock. Binding to real timers happens one layer up.
package search
