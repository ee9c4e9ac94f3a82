// Package database provides the PostgreSQL connection pool and schema
// bootstrap for quotewatch's persistent records: monitored pairs,
// arbitrage alerts, subscribers, and quote history.
package database
