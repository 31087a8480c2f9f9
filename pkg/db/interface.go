package db

import "database/sql"

// DBProvider is implemented by clients that hand out a sql.DB handle.
// PostgresClient, SupabaseClient and SQLiteClient can back a ReviewTable interchangeably.
type DBProvider interface {
	DB() *sql.DB
}
