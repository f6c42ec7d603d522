package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/db"
	"github.com/sells-group/access-cli/internal/model"
)

// psql builds Postgres ($n) placeholder queries.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var runColumns = []string{"id", "input", "status", "summary", "error", "created_at", "updated_at"}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	if maxConns > 0 {
		pgxCfg.MaxConns = maxConns
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	input      JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_regions (
	run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	row_no         INTEGER NOT NULL,
	region_key     TEXT NOT NULL,
	region_name    TEXT NOT NULL,
	households     DOUBLE PRECISION NOT NULL,
	ratio          DOUBLE PRECISION NOT NULL,
	facility_count INTEGER NOT NULL,
	facility_rate  DOUBLE PRECISION NOT NULL,
	ratio_z        DOUBLE PRECISION NOT NULL,
	rate_z         DOUBLE PRECISION NOT NULL,
	composite      DOUBLE PRECISION NOT NULL,
	score          DOUBLE PRECISION NOT NULL,
	matched        BOOLEAN NOT NULL,
	boundary_name  TEXT NOT NULL DEFAULT '',
	match_method   TEXT NOT NULL,
	PRIMARY KEY (run_id, row_no)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_run_regions_key ON run_regions(region_key);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal input")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, input, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, inputJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Input:     input,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CompleteRun marks the run complete and upserts its regions keyed by
// (run_id, row_no), so a repeated save overwrites rather than duplicates.
func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary, regions []model.AggregatedRegion) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, error = NULL, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusComplete), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}

	rows := make([][]any, len(regions))
	for i, r := range regions {
		rows[i] = regionRow(runID, i, r)
	}
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "run_regions",
		Columns:      regionColumns,
		ConflictKeys: []string{"run_id", "row_no"},
	}, rows); err != nil {
		return eris.Wrapf(err, "postgres: save regions of run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, msg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	query, args, err := psql.Select(runColumns...).From("runs").Where(sq.Eq{"id": runID}).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build get run")
	}

	r, err := scanPgRun(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	b := psql.Select(runColumns...).From("runs").
		OrderBy("created_at DESC").
		Limit(uint64(limitOf(filter))) //nolint:gosec // limitOf is positive
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list runs")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) RunRegions(ctx context.Context, runID string) ([]model.AggregatedRegion, error) {
	query, args, err := psql.Select(regionColumns[2:]...).
		From("run_regions").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("row_no").
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build run regions")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list regions of run %s", runID)
	}
	defer rows.Close()

	var out []model.AggregatedRegion
	for rows.Next() {
		var (
			r      model.AggregatedRegion
			method string
		)
		if err := rows.Scan(&r.RegionKey, &r.RegionName, &r.Households, &r.Ratio,
			&r.FacilityCount, &r.FacilityRate, &r.RatioZ, &r.RateZ, &r.Composite, &r.Score,
			&r.Matched, &r.BoundaryName, &method); err != nil {
			return nil, eris.Wrap(err, "postgres: scan region")
		}
		r.MatchMethod = model.MatchMethod(method)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list regions iterate")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var (
		r         model.Run
		status    string
		inputJSON []byte
		summary   *[]byte
		errMsg    *string
	)
	if err := row.Scan(&r.ID, &inputJSON, &status, &summary, &errMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)

	var summaryJSON []byte
	if summary != nil {
		summaryJSON = *summary
	}
	if err := decodeRun(&r, inputJSON, summaryJSON); err != nil {
		return nil, err
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}
