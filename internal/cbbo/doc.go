// Package cbbo computes the consolidated best bid/offer across venues.
//
// Aggregation is a pure function of one tick's venue quote set. Venues with
// a one-sided quote are excluded entirely, never partially credited. Fewer
// than two two-sided venues is a normal no-signal outcome, not an error to
// alert on.
package cbbo
