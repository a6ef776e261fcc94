package database

import (
	"database/sql"
	_ "embed"

	"github.com/cockroachdb/errors"
)

//go:embed schema.sql
var schema string

// Migrate creates the ALEX123 tables and indexes if they do not exist yet.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// CountSpecies returns the number of sum species rows; zero means an empty database.
func CountSpecies(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sum_lipid_species`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count sum species")
	}
	return n, nil
}
