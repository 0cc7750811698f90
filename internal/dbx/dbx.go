package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"pdf-slicer/internal/slicer"
	"pdf-slicer/internal/util"
)

const pingTimeout = 5 * time.Second

var journalColumns = []string{
	"run_id",
	"source",
	"slice_index",
	"first_page",
	"last_page",
	"pages",
	"output_path",
	"created_at",
}

// Open разбирает DSN драйвером MySQL и проверяет соединение.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("connector: %w", err)
	}

	db := sql.OpenDB(connector)

	// запись идёт последовательно, одного соединения хватает
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return db, nil
}

func BuildCreateJournal(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  run_id CHAR(36) NOT NULL,
  source VARCHAR(1024) NOT NULL,
  slice_index INT UNSIGNED NOT NULL,
  first_page INT UNSIGNED NOT NULL,
  last_page INT UNSIGNED NOT NULL,
  pages INT UNSIGNED NOT NULL,
  output_path VARCHAR(1024) NOT NULL,
  created_at DATETIME(3) NOT NULL,
  PRIMARY KEY (id),
  KEY idx_run (run_id, slice_index)
)`, util.Ident(table))
}

func BuildInsertSlice(table string) string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		util.Ident(table),
		util.IdentList(journalColumns...),
		util.Placeholders(len(journalColumns)),
	)
}

// Journal пишет по строке на каждый записанный срез.
type Journal struct {
	db     *sql.DB
	insert *sql.Stmt
	table  string
	log    zerolog.Logger
	now    func() time.Time
}

func NewJournal(ctx context.Context, db *sql.DB, table string, log zerolog.Logger) (*Journal, error) {
	if _, err := db.ExecContext(ctx, BuildCreateJournal(table)); err != nil {
		return nil, fmt.Errorf("create journal %s: %w", table, err)
	}

	stmt, err := db.PrepareContext(ctx, BuildInsertSlice(table))
	if err != nil {
		return nil, fmt.Errorf("prepare journal insert: %w", err)
	}

	log.Debug().Str("table", table).Msg("slice journal ready")

	return &Journal{db: db, insert: stmt, table: table, log: log, now: time.Now}, nil
}

func (j *Journal) Record(ctx context.Context, rec slicer.Record) error {
	_, err := j.insert.ExecContext(ctx, recordArgs(rec, j.now())...)
	if err != nil {
		return fmt.Errorf("journal %s: %w", j.table, err)
	}

	return nil
}

func (j *Journal) Close() error {
	return j.insert.Close()
}

func recordArgs(rec slicer.Record, at time.Time) []any {
	return []any{
		rec.RunID,
		rec.Source,
		rec.Range.Index,
		rec.Range.Begin + 1,
		rec.Range.End,
		rec.Range.Pages(),
		rec.Path,
		at.UTC(),
	}
}
