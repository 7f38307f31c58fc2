// Package sqlite provides a SQLite-backed report source: it loads the
// raw hierarchical tables the query engine has materialized for each
// report.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS report_rows (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	report    TEXT    NOT NULL,
	segment   TEXT    NOT NULL DEFAULT '',
	parent_id INTEGER REFERENCES report_rows(id),
	position  INTEGER NOT NULL,
	columns   TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_report_rows_report ON report_rows(report, segment, position);
`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Source loads raw report trees from a SQLite database.
type Source struct {
	db *sqlx.DB
}

// New opens (creating if needed) the report database at path.
func New(path string) (*Source, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report database: %w", err)
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Source{db: db}, nil
}

// Close closes the underlying database.
func (s *Source) Close() error {
	return s.db.Close()
}

type rowRecord struct {
	ID       int64          `db:"id"`
	Segment  string         `db:"segment"`
	ParentID sql.NullInt64  `db:"parent_id"`
	Position int64          `db:"position"`
	Columns  string         `db:"columns"`
}

// Load builds the tree for a report. Rows sharing the empty segment
// form a single table; multiple segments form a labeled collection, one
// table per segment, ordered by segment label.
func (s *Source) Load(ctx context.Context, report string) (domain.Node, error) {
	var records []rowRecord
	err := s.db.SelectContext(ctx, &records,
		`SELECT id, segment, parent_id, position, columns
		 FROM report_rows WHERE report = ?
		 ORDER BY segment, parent_id IS NOT NULL, parent_id, position`, report)
	if err != nil {
		return nil, fmt.Errorf("load report %q: %w", report, err)
	}
	if len(records) == 0 {
		return domain.NewTable(), nil
	}

	tables := make(map[string]*domain.Table)
	var segments []string
	byID := make(map[int64]*domain.Row, len(records))

	for _, rec := range records {
		row := domain.NewRow()
		if err := json.Unmarshal([]byte(rec.Columns), &row.Columns); err != nil {
			return nil, fmt.Errorf("decode row %d of report %q: %w", rec.ID, report, err)
		}
		byID[rec.ID] = row

		if !rec.ParentID.Valid {
			t, ok := tables[rec.Segment]
			if !ok {
				t = domain.NewTable()
				tables[rec.Segment] = t
				segments = append(segments, rec.Segment)
			}
			t.AddRow(row)
			continue
		}
		parent, ok := byID[rec.ParentID.Int64]
		if !ok {
			return nil, fmt.Errorf("row %d of report %q references missing parent %d",
				rec.ID, report, rec.ParentID.Int64)
		}
		if parent.Subtable == nil {
			parent.Subtable = domain.NewTable()
		}
		parent.Subtable.AddRow(row)
	}

	if len(segments) == 1 && segments[0] == "" {
		return tables[""], nil
	}
	coll := domain.NewCollection()
	for _, seg := range segments {
		coll.Set(seg, tables[seg])
	}
	return coll, nil
}

// SaveTable persists a table (and its subtables) for a report segment,
// replacing any rows previously stored for that report and segment.
func (s *Source) SaveTable(ctx context.Context, report, segment string, t *domain.Table) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM report_rows WHERE report = ? AND segment = ?`, report, segment); err != nil {
		return fmt.Errorf("clear report %q: %w", report, err)
	}
	if err := s.saveRows(ctx, tx, report, segment, t, sql.NullInt64{}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *Source) saveRows(ctx context.Context, tx *sqlx.Tx, report, segment string, t *domain.Table, parent sql.NullInt64) error {
	for pos, r := range t.Rows {
		payload, err := json.Marshal(r.Columns)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", pos, err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO report_rows (report, segment, parent_id, position, columns)
			 VALUES (?, ?, ?, ?, ?)`,
			report, segment, parent, pos, string(payload))
		if err != nil {
			return fmt.Errorf("insert row %d: %w", pos, err)
		}
		if r.Subtable == nil {
			continue
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("row id: %w", err)
		}
		sub := sql.NullInt64{Int64: id, Valid: true}
		if err := s.saveRows(ctx, tx, report, segment, r.Subtable, sub); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.Source = (*Source)(nil)
