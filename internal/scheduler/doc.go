// Package scheduler runs named polling loops.
//
// Each started key owns one goroutine that fires its tick immediately and
// then on a fixed interval. Starting an already-running key is a logged
// no-op, so repeated operator commands cannot stack duplicate loops. A
// tick error is logged and the loop keeps going; a tick can stop its own
// loop by returning ErrStop. Stop cancels the loop, waits for the current
// tick to finish and removes the key, so a later Start begins fresh.
package scheduler
