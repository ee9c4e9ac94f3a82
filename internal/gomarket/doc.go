// Package gomarket implements the GoMarket REST and WebSocket quote source.
//
// The client:
//   - Fetches L1/L2 orderbooks and symbol listings per (venue, symbol)
//   - Normalizes heterogeneous venue payload shapes into model.Quote through
//     a single field-alias table (no per-call-site fallbacks)
//   - Handles venue-specific symbol formatting in one mapping table
//   - Retries retryable failures with exponential backoff and jitter
package gomarket
