package database

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/forkstream/internal/config"
)

// BuildConnString builds a PostgreSQL URL from config. Credentials and
// parameters are escaped by net/url.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	if cfg.ApplicationName != "" {
		q.Set("application_name", cfg.ApplicationName)
	}
	if cfg.ConnectTimeout > 0 {
		// libpq takes whole seconds; round sub-second values up.
		secs := int((cfg.ConnectTimeout + time.Second - 1) / time.Second)
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
