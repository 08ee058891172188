package repos

import (
	"context"
	_ "embed"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

var ErrNotFound = pgx.ErrNoRows

//go:embed schema.sql
var schema string

func Connect(databaseURL string) (*Repo, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	config.ConnConfig.Tracer = &tracer{}

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	return &Repo{db: db}, nil
}

// Migrate creates the journal tables if they do not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *Repo) Close() {
	r.db.Close()
}
