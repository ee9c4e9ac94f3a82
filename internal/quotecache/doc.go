// Package quotecache holds the most recent quote per (symbol, venue).
//
// The cache is purely in-memory and overwrite-only: a polling tick replaces
// a symbol's entire venue map, so venues that did not answer this tick are
// absent rather than stale. There is no expiry logic.
package quotecache
