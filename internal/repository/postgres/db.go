package postgres

import (
	"database/sql"

	_ "github.com/lib/pq" // postgres driver
)

// Open connects to Postgres with the given URL and verifies the connection.
func Open(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
