package repos

import (
	"context"
	"errors"
	"fmt"
	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"photo-geotag/geotag"
	"time"
)

// Batch is one write invocation: the target it was given and the result for
// every file, in input order.
type Batch struct {
	ID      uuid.UUID
	Target  orb.Point // GCJ-02
	WGS84   orb.Point
	Exact   bool
	RetryOf *uuid.UUID
	Results []geotag.WriteResult

	// ArchiveKeys maps result positions to their archived object key.
	ArchiveKeys map[int]string
}

func NewBatch(target, wgs84 orb.Point, exact bool, results []geotag.WriteResult) (Batch, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Batch{}, err
	}
	return Batch{ID: id, Target: target, WGS84: wgs84, Exact: exact, Results: results}, nil
}

type BatchSummary struct {
	ID        uuid.UUID  `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Target    orb.Point  `json:"target"`
	WGS84     orb.Point  `json:"wgs84"`
	Exact     bool       `json:"exact"`
	RetryOf   *uuid.UUID `json:"retry_of,omitempty"`
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
}

func (r *Repo) SaveBatch(ctx context.Context, b Batch) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO geotag_batches (id, target_lon, target_lat, wgs84, exact, retry_of)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), $6, $7)
	`, b.ID, b.Target.Lon(), b.Target.Lat(), b.WGS84.Lon(), b.WGS84.Lat(), b.Exact, b.RetryOf)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	batch := &pgx.Batch{}
	for i, res := range b.Results {
		var archiveKey *string
		if key, ok := b.ArchiveKeys[i]; ok {
			archiveKey = &key
		}
		batch.Queue(`
			INSERT INTO geotag_results (batch_id, position, file_path, success, archive_key)
			VALUES ($1, $2, $3, $4, $5)
		`, b.ID, i, res.FilePath, res.Success, archiveKey)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < len(b.Results); i++ {
		_, err := results.Exec()
		if err != nil {
			return fmt.Errorf("insert result %d: %w", i, err)
		}
	}
	_ = results.Close()

	return tx.Commit(ctx)
}

// ListBatches returns the newest batches first.
func (r *Repo) ListBatches(ctx context.Context, limit int) ([]BatchSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b.id, b.created_at, b.target_lon, b.target_lat, ST_AsBinary(b.wgs84), b.exact, b.retry_of,
		       count(r.position),
		       count(r.position) FILTER (WHERE r.success)
		FROM geotag_batches b
		LEFT JOIN geotag_results r ON r.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]BatchSummary, 0)
	for rows.Next() {
		var s BatchSummary
		var lon, lat float64
		var wgs orb.Point
		if err := rows.Scan(&s.ID, &s.CreatedAt, &lon, &lat, ewkb.Scanner(&wgs), &s.Exact, &s.RetryOf, &s.Total, &s.Succeeded); err != nil {
			return nil, err
		}
		s.Target = orb.Point{lon, lat}
		s.WGS84 = wgs
		s.Failed = s.Total - s.Succeeded
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetBatch loads a batch with its results.
func (r *Repo) GetBatch(ctx context.Context, id uuid.UUID) (Batch, error) {
	b := Batch{ID: id, ArchiveKeys: make(map[int]string)}
	var lon, lat float64
	err := r.db.QueryRow(ctx, `
		SELECT target_lon, target_lat, ST_AsBinary(wgs84), exact, retry_of
		FROM geotag_batches
		WHERE id = $1
	`, id).Scan(&lon, &lat, ewkb.Scanner(&b.WGS84), &b.Exact, &b.RetryOf)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrNotFound
	} else if err != nil {
		return Batch{}, err
	}
	b.Target = orb.Point{lon, lat}

	rows, err := r.db.Query(ctx, `
		SELECT position, file_path, success, archive_key
		FROM geotag_results
		WHERE batch_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return Batch{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var position int
		var res geotag.WriteResult
		var archiveKey *string
		if err := rows.Scan(&position, &res.FilePath, &res.Success, &archiveKey); err != nil {
			return Batch{}, err
		}
		if archiveKey != nil {
			b.ArchiveKeys[position] = *archiveKey
		}
		b.Results = append(b.Results, res)
	}
	return b, rows.Err()
}

// FailedPaths returns the paths that failed in a batch, in input order.
func (r *Repo) FailedPaths(ctx context.Context, id uuid.UUID) ([]string, error) {
	b, err := r.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	return geotag.FailedPaths(b.Results), nil
}
