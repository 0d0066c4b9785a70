package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"formcheck/internal/analysis"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS analyses (
    id                 TEXT PRIMARY KEY,
    video_url          TEXT NOT NULL,
    frame_skip         INTEGER NOT NULL,
    frame_index        INTEGER NOT NULL,
    total_frames       INTEGER NOT NULL,
    processed_frames   INTEGER NOT NULL,
    image_url          TEXT NOT NULL,
    min_knee_angle     DOUBLE PRECISION NOT NULL,
    text_analysis      TEXT NOT NULL,
    summary            TEXT NOT NULL,
    improvements       TEXT NOT NULL,
    risk_factor        TEXT NOT NULL,
    audio_url          TEXT,
    narrative_fallback BOOLEAN NOT NULL DEFAULT FALSE,
    created_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at);
`

// Postgres stores history in a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url, verifies the connection and ensures the table.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure analyses table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Save(ctx context.Context, r analysis.Record) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO analyses (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.ID, r.VideoURL, r.FrameSkip, r.FrameIndex, r.TotalFrames, r.ProcessedFrames,
		r.ImageURL, r.MinKneeAngle, r.TextAnalysis, r.Summary, r.Improvements, r.RiskFactor,
		r.AudioURL, r.NarrativeFallback, r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (analysis.Record, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM analyses WHERE id = $1`, id)
	record, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return analysis.Record{}, notFound(id)
	}
	return record, err
}

func (p *Postgres) List(ctx context.Context, limit int) ([]analysis.Record, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM analyses ORDER BY created_at DESC, id LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var records []analysis.Record
	for rows.Next() {
		record, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return records, nil
}

func (p *Postgres) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func scanPostgres(row pgx.Row) (analysis.Record, error) {
	var r analysis.Record
	err := row.Scan(&r.ID, &r.VideoURL, &r.FrameSkip, &r.FrameIndex, &r.TotalFrames, &r.ProcessedFrames,
		&r.ImageURL, &r.MinKneeAngle, &r.TextAnalysis, &r.Summary, &r.Improvements, &r.RiskFactor,
		&r.AudioURL, &r.NarrativeFallback, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan analysis: %w", err)
	}
	return r, nil
}
