package warehouse

import (
	"fmt"
	"net/url"
)

// PostgresDSN builds a DSN for the pgx stdlib driver.
func PostgresDSN(host, port, database, user, password string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   host + ":" + port,
		Path:   "/" + database,
	}
	return u.String()
}

// SQLServerDSN builds a DSN for the sqlserver driver. Encryption uses TLS
// without CA verification so internal certificates work.
func SQLServerDSN(host, port, database, user, password string, encrypt bool) string {
	dsn := fmt.Sprintf("server=%s;port=%s;database=%s;user id=%s;password=%s", host, port, database, user, password)
	if encrypt {
		dsn += ";encrypt=true;TrustServerCertificate=true"
	} else {
		dsn += ";encrypt=false"
	}
	return dsn
}
