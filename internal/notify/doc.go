// Package notify delivers signals to subscribers with change gating.
//
// A consolidated quote is delivered only when it changed meaningfully:
// a best-bid or best-ask venue moved, the mid price moved by more than
// the configured delta, or it is the first signal for the key. Minor
// price drift delivers nothing at all. A delivery edits the previous
// message in place when one exists; only a failed edit (or a first
// signal) produces a fresh send.
//
// Delivery failures are logged and never propagated to the polling loops.
package notify
