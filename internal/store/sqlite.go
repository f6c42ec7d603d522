package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/access-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	input      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_regions (
	run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	row_no         INTEGER NOT NULL,
	region_key     TEXT NOT NULL,
	region_name    TEXT NOT NULL,
	households     REAL NOT NULL,
	ratio          REAL NOT NULL,
	facility_count INTEGER NOT NULL,
	facility_rate  REAL NOT NULL,
	ratio_z        REAL NOT NULL,
	rate_z         REAL NOT NULL,
	composite      REAL NOT NULL,
	score          REAL NOT NULL,
	matched        INTEGER NOT NULL,
	boundary_name  TEXT NOT NULL DEFAULT '',
	match_method   TEXT NOT NULL,
	PRIMARY KEY (run_id, row_no)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal input")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(inputJSON), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Input:     input,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CompleteRun stores the summary and scored regions in one transaction.
// Saving the same run again replaces its regions.
func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary, regions []model.AggregatedRegion) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, error = NULL, updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	if err := checkRowsAffected(res, runID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_regions WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: clear regions of run %s", runID)
	}

	if len(regions) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(regionColumns)), ", ")
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO run_regions (`+strings.Join(regionColumns, ", ")+`) VALUES (`+placeholders+`)`)
		if err != nil {
			return eris.Wrap(err, "sqlite: prepare region insert")
		}
		defer stmt.Close() //nolint:errcheck

		for i, r := range regions {
			if _, err := stmt.ExecContext(ctx, regionRow(runID, i, r)...); err != nil {
				return eris.Wrapf(err, "sqlite: insert region %d of run %s", i, runID)
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit run")
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input, status, summary, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, input, status, summary, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOf(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) RunRegions(ctx context.Context, runID string) ([]model.AggregatedRegion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT region_key, region_name, households, ratio, facility_count, facility_rate,
		        ratio_z, rate_z, composite, score, matched, boundary_name, match_method
		 FROM run_regions WHERE run_id = ? ORDER BY row_no`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list regions of run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.AggregatedRegion
	for rows.Next() {
		var r model.AggregatedRegion
		if err := rows.Scan(&r.RegionKey, &r.RegionName, &r.Households, &r.Ratio,
			&r.FacilityCount, &r.FacilityRate, &r.RatioZ, &r.RateZ, &r.Composite, &r.Score,
			&r.Matched, &r.BoundaryName, &r.MatchMethod); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan region")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list regions iterate")
}

// helpers

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var inputJSON string
	var summaryJSON, errMsg sql.NullString

	err := row.Scan(&r.ID, &inputJSON, &r.Status, &summaryJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := decodeRun(&r, []byte(inputJSON), nullBytes(summaryJSON)); err != nil {
		return nil, err
	}
	r.Error = errMsg.String
	return &r, nil
}

func nullBytes(s sql.NullString) []byte {
	if !s.Valid {
		return nil
	}
	return []byte(s.String)
}

// decodeRun fills the JSON columns of a run.
func decodeRun(r *model.Run, input, summary []byte) error {
	if err := json.Unmarshal(input, &r.Input); err != nil {
		return eris.Wrap(err, "store: unmarshal run input")
	}
	if summary != nil {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(summary, r.Summary); err != nil {
			return eris.Wrap(err, "store: unmarshal run summary")
		}
	}
	return nil
}
