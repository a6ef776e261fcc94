package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"lipidlibrarian/pkg/database"
	"lipidlibrarian/pkg/logger"
)

var ErrNotEmpty = errors.New("database already holds lipid species")

func main() {
	var (
		dir    = flag.String("dir", "data/alex123", "directory holding <table>.csv exports")
		dbPath = flag.String("db", "", "target database (default $LIPIDLIBRARIAN_DB_PATH or ~/.lipidlibrarian/alex123.db)")
	)
	flag.Parse()

	if err := logger.Initialize(false, 0); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Named("import-alex123")

	cfg := database.DefaultConfig()
	if *dbPath != "" {
		cfg.Path = *dbPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db := database.MustOpen(cfg)
	defer db.Close()

	counts, err := importDir(ctx, db, *dir)
	if err != nil {
		log.Fatalw("import failed", logger.FieldPath, cfg.Path, logger.FieldError, err)
	}
	for _, t := range database.Tables {
		log.Infow("imported table", "table", t.Name, logger.FieldCount, counts[t.Name])
	}
	log.Infow("import finished", logger.FieldPath, cfg.Path)
}

// importDir migrates db and loads every table export from dir in one
// transaction. It refuses to touch a database that already has species.
func importDir(ctx context.Context, db *sql.DB, dir string) (map[string]int, error) {
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	n, err := database.CountSpecies(db)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, errors.WithHint(errors.Wrapf(ErrNotEmpty, "%d sum species", n),
			"import into a fresh database file")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin import")
	}
	defer func() { _ = tx.Rollback() }()

	counts := make(map[string]int, len(database.Tables))
	for _, t := range database.Tables {
		path := filepath.Join(dir, t.FileName())
		c, err := importTable(ctx, tx, t, path)
		if err != nil {
			return nil, errors.Wrapf(err, "import %s", path)
		}
		counts[t.Name] = c
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit import")
	}
	return counts, nil
}

func importTable(ctx context.Context, tx *sql.Tx, t database.Table, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}
	for _, col := range t.Columns {
		if _, ok := header[col]; !ok {
			return 0, errors.Newf("missing column %s", col)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+t.Name+` (`+strings.Join(t.Columns, ", ")+`)
		VALUES (?`+strings.Repeat(", ?", len(t.Columns)-1)+`)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	args := make([]any, len(t.Columns))
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		if len(row) == 0 {
			continue
		}
		for i, col := range t.Columns {
			args[i] = nullString(valueAt(header, row, col))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return n, errors.Wrapf(err, "row %d", n+1)
		}
		n++
	}
	return n, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
