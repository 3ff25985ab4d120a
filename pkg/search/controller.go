package search

import (
	"time"

	"github.com/goliatone/go-selectfield/pkg/option"
)

// DefaultDebounce is the debounce window applied when none is configured.
const DefaultDebounce = time.Second

// Status is the lifecycle state of the current search session.
type Status int

const (
	// StatusIdle - no search activity since construction or the last reset.
	StatusIdle Status = iota
	// StatusDebouncing - a keystroke opened a debounce window that has not
	// fired yet.
	StatusDebouncing
	// StatusInFlight - a request was issued and its completion is pending.
	StatusInFlight
	// StatusCompleted - the latest request resolved and its results are the
	// current candidate list.
	StatusCompleted
	// StatusErrored - the latest request failed; the previous completed
	// candidate list is retained for display.
	StatusErrored
)

// String returns the lowercase state name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusDebouncing:
		return "debouncing"
	case StatusInFlight:
		return "in-flight"
	case StatusCompleted:
		return "completed"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Request identifies one issued search. IDs increase monotonically per
// controller; only the request carrying the highest issued ID may have its
// outcome applied.
type Request struct {
	ID    uint64
	Query string
	Limit int
}

// Controller sequences raw keystrokes into at most one effective search per
// debounce window and suppresses stale completions. All methods take or imply
// explicit event times; the caller is responsible for scheduling a timer to
// fire at the instant returned by Keystroke.
type Controller struct {
	debounce time.Duration
	limit    int

	status   Status
	query    string
	pending  bool
	deadline time.Time

	nextID     uint64
	latestID   uint64
	lastIssued time.Time

	results      []option.Entry
	hasCompleted bool
	err          error
}

// NewController builds a controller with the given debounce window and result
// limit. Non-positive arguments fall back to DefaultDebounce and the source
// default limit.
func NewController(debounce time.Duration, limit int) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Controller{debounce: debounce, limit: limit}
}

// Keystroke records the new query and (re)opens the debounce window. It
// returns the instant the window fires, which is never earlier than one full
// debounce interval after the previously issued request, so sustained typing
// produces at most one request per interval. Any pending timer for an earlier
// deadline must be cancelled by the caller; any in-flight request's result is
// marked to be discarded on arrival.
func (c *Controller) Keystroke(now time.Time, query string) time.Time {
	c.query = query
	c.status = StatusDebouncing
	c.pending = true

	deadline := now.Add(c.debounce)
	if !c.lastIssued.IsZero() {
		if spaced := c.lastIssued.Add(c.debounce); spaced.After(deadline) {
			deadline = spaced
		}
	}
	c.deadline = deadline
	return deadline
}

// TimerFired issues the pending request if the open window has elapsed.
// Spurious or early fires report ok=false and change nothing.
func (c *Controller) TimerFired(now time.Time) (Request, bool) {
	if !c.pending || now.Before(c.deadline) {
		return Request{}, false
	}

	c.pending = false
	c.nextID++
	c.latestID = c.nextID
	c.lastIssued = now
	c.status = StatusInFlight

	return Request{ID: c.latestID, Query: c.query, Limit: c.limit}, true
}

// Complete applies a request's outcome. It reports false - leaving all state
// untouched - when the id is not the latest issued, or when a keystroke moved
// the session back to debouncing while the request was in flight; such
// results are discarded on arrival rather than cancelled. On failure the
// previous completed candidate list is retained alongside the error.
func (c *Controller) Complete(id uint64, entries []option.Entry, err error) bool {
	if id != c.latestID || c.status != StatusInFlight {
		return false
	}

	if err != nil {
		c.status = StatusErrored
		c.err = err
		return true
	}

	c.status = StatusCompleted
	c.err = nil
	c.results = entries
	c.hasCompleted = true
	return true
}

// Status reports the current session state.
func (c *Controller) Status() Status {
	return c.status
}

// Searching reports whether a request is pending or in flight.
func (c *Controller) Searching() bool {
	return c.status == StatusDebouncing || c.status == StatusInFlight
}

// Query returns the most recent query string recorded by a keystroke.
func (c *Controller) Query() string {
	return c.query
}

// Results returns the candidate list of the most recent completed request.
// After an error it still returns the last successful list so the UI does not
// clear abruptly.
func (c *Controller) Results() []option.Entry {
	return c.results
}

// HasResults reports whether any request has ever completed successfully.
func (c *Controller) HasResults() bool {
	return c.hasCompleted
}

// Err returns the failure of the latest request when in the errored state.
func (c *Controller) Err() error {
	return c.err
}

// Reset returns the controller to the idle state, discarding the query,
// results and any pending window. The id counter keeps increasing, and the
// latest-id watermark is cleared, so a completion from before the reset can
// never be applied after it.
func (c *Controller) Reset() {
	c.status = StatusIdle
	c.query = ""
	c.pending = false
	c.results = nil
	c.hasCompleted = false
	c.err = nil
	c.latestID = 0
}
