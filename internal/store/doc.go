// Package store persists quotewatch's durable records.
//
// Stores:
//   - Monitored pairs (registry, deactivated rather than deleted)
//   - Arbitrage alerts (append-only, with the suppression-window gate)
//   - Subscribers and their enabled signal types
//   - Per-venue quote history (append-only)
//
// The suppression check-then-insert for alerts is atomic per
// (symbol, buy_venue, sell_venue): concurrent qualifying ticks persist
// exactly one record. Both a PostgreSQL and an in-memory implementation
// are provided; the in-memory one backs tests and single-process runs.
package store
