package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/stock-relay/internal/config"
)

// ApplicationName is reported to Postgres so relay sessions show up in pg_stat_activity.
const ApplicationName = "stock-relay"

// BuildConnString builds a PostgreSQL connection URL from config.
// User and password are escaped, so credentials may carry any characters.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}
	port := cfg.Port
	if port == 0 {
		port = config.DefaultDBPort
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", ApplicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
