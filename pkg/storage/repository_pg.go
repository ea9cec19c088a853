package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// PgRepository stores records in the app_state table of a Postgres database.
type PgRepository struct {
	db *pgxpool.Pool
}

func NewPgRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

func (r *PgRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.db.QueryRow(ctx, `SELECT value FROM app_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not load record %s: %w", key, err)
		log.Error(err)
		return nil, err
	}
	return []byte(value), nil
}

func (r *PgRepository) Store(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO app_state (key, value, updated_at) VALUES ($1, $2, now())
			  ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.Exec(ctx, query, key, string(value)); err != nil {
		err := fmt.Errorf("could not store record %s: %w", key, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, keys ...string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM app_state WHERE key = ANY($1)`, keys); err != nil {
		err := fmt.Errorf("could not delete records %v: %w", keys, err)
		log.Error(err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}
