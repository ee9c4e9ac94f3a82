// Package arb detects cross-venue arbitrage for a monitored venue pair.
//
// Detection is pairwise (venue A vs venue B), independent of the N-way
// consolidated book. Both directions are evaluated each tick; a direction
// qualifies when the spread is positive and clears the pair's percentage
// or absolute threshold. At most one opportunity is reported per
// evaluation, the buy-A/sell-B direction taking priority when both
// qualify.
package arb
