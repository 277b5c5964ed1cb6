package db

import (
	"database/sql"
)

// Database is a connection that owns its schema.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
