package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"lipidlibrarian/pkg/database"
	"lipidlibrarian/pkg/logger"
)

func main() {
	var (
		dir    = flag.String("dir", "data/alex123", "output directory for <table>.csv exports")
		dbPath = flag.String("db", "", "source database (default $LIPIDLIBRARIAN_DB_PATH or ~/.lipidlibrarian/alex123.db)")
	)
	flag.Parse()

	if err := logger.Initialize(false, 0); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Named("export-alex123")

	cfg := database.DefaultConfig()
	if *dbPath != "" {
		cfg.Path = *dbPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := database.OpenExisting(cfg)
	if err != nil {
		log.Fatalw("open database failed", logger.FieldPath, cfg.Path, logger.FieldError, err)
	}
	defer db.Close()

	for _, t := range database.Tables {
		n, err := exportTable(ctx, db, t, filepath.Join(*dir, t.FileName()))
		if err != nil {
			log.Fatalw("export failed", "table", t.Name, logger.FieldError, err)
		}
		log.Infow("exported table", "table", t.Name, logger.FieldCount, n)
	}
	log.Infow("export finished", logger.FieldPath, *dir)
}

// exportTable writes every row of t to outPath ordered by its id column.
// NULL cells are written as empty strings.
func exportTable(ctx context.Context, db *sql.DB, t database.Table, outPath string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return 0, err
	}

	rows, err := db.QueryContext(ctx, `SELECT `+strings.Join(t.Columns, ", ")+` FROM `+t.Name+` ORDER BY `+t.Columns[0])
	if err != nil {
		return 0, errors.Wrapf(err, "select %s", t.Name)
	}
	defer rows.Close()

	cells := make([]sql.NullString, len(t.Columns))
	dest := make([]any, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}
	record := make([]string, len(cells))

	n := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return n, err
		}
		for i, c := range cells {
			record[i] = c.String
		}
		if err := w.Write(record); err != nil {
			return n, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return n, err
	}
	return n, f.Close()
}
