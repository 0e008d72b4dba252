// Package store persists an audit log of served predictions in SQLite.
// Storage is best-effort from the pipeline's point of view: a failed write
// never changes a prediction's outcome.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/safetyscope/safetyscope-cli/internal/model"
)

// SQLiteStore records prediction runs using modernc.org/sqlite.
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS predictions (
	id         TEXT PRIMARY KEY,
	request    TEXT NOT NULL,
	result     TEXT,
	status     TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_predictions_status ON predictions(status);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreatePrediction records one served prediction.
func (s *SQLiteStore) CreatePrediction(ctx context.Context, req model.Request, res *model.PredictionResult) (*model.PredictionRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal request")
	}
	resJSON, err := json.Marshal(res)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO predictions (id, request, result, status, risk_level, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(reqJSON), string(resJSON), string(res.Status), string(res.RiskLevel), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert prediction")
	}

	return &model.PredictionRun{ID: id, Request: req, Result: res, CreatedAt: now}, nil
}

// RunFilter narrows ListPredictions.
type RunFilter struct {
	Status string
	Limit  int
	Offset int
}

// ListPredictions returns stored runs, newest first.
func (s *SQLiteStore) ListPredictions(ctx context.Context, filter RunFilter) ([]model.PredictionRun, error) {
	query := `SELECT id, request, result, created_at FROM predictions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list predictions")
	}
	defer rows.Close()

	var runs []model.PredictionRun
	for rows.Next() {
		r, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list predictions iterate")
}

// GetPrediction returns one stored run by id.
func (s *SQLiteStore) GetPrediction(ctx context.Context, id string) (*model.PredictionRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request, result, created_at FROM predictions WHERE id = ?`, id)
	return scanPrediction(row)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPrediction(row scannable) (*model.PredictionRun, error) {
	var r model.PredictionRun
	var reqJSON string
	var resJSON sql.NullString

	err := row.Scan(&r.ID, &reqJSON, &resJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("prediction not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan prediction")
	}

	if err := json.Unmarshal([]byte(reqJSON), &r.Request); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal request")
	}
	if resJSON.Valid {
		r.Result = &model.PredictionResult{}
		if err := json.Unmarshal([]byte(resJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}
