package database

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/goquant/quotewatch/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config. Pool
// sizing rides along as pgxpool query parameters, and the connection tags
// itself in pg_stat_activity via application_name.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	query := url.Values{}
	query.Set("application_name", "quotewatch")
	query.Set("sslmode", sslMode)
	if cfg.MinConns > 0 {
		query.Set("pool_min_conns", strconv.Itoa(cfg.MinConns))
	}
	if cfg.MaxConns > 0 {
		query.Set("pool_max_conns", strconv.Itoa(cfg.MaxConns))
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?%s",
		cfg.User,
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		query.Encode(),
	)
}
