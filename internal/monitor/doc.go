// Package monitor ties the polling loops together.
//
// The Service owns the quote cache, the scheduler and the per-pair
// monitors. An arbitrage monitor for a venue pair runs two loops on
// independent intervals: a fast consolidated-quote loop and a slower
// detection loop. A single shared loop refreshes the broad market view
// for every subscribed chat.
//
// Loops degrade rather than die: a venue that fails to answer on one
// tick is simply absent from that tick's quote set. Only a run of ticks
// with no data at all ends a pair monitor.
package monitor
