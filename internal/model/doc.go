// Package model defines shared data types used across the quotewatch engine.
//
// Conventions:
//   - Prices and sizes: decimal.Decimal; a non-positive price means "side absent"
//   - Timestamps: time.Time in UTC
//   - IDs: string for venues/symbols/chats, uuid.UUID for opportunities
package model
