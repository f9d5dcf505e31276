package storage

import (
	"context"
	"fmt"
)

// QuotaRepo implements the trends quota store on PostgreSQL, so key usage
// survives restarts and is shared across instances.
type QuotaRepo struct {
	db *DB
}

func (db *DB) Quota() *QuotaRepo {
	return &QuotaRepo{db: db}
}

// Increment atomically bumps the key's counter for the month and returns the
// new count.
func (r *QuotaRepo) Increment(ctx context.Context, key, month string) (int, error) {
	var count int

	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO provider_quota (key, month, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (key, month) DO UPDATE SET count = provider_quota.count + 1
		RETURNING count`, key, month).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment quota: %w", err)
	}

	return count, nil
}

// Count returns the key's counter for the month; zero when unseen.
func (r *QuotaRepo) Count(ctx context.Context, key, month string) (int, error) {
	var count int

	err := r.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(count), 0) FROM provider_quota
		WHERE key = $1 AND month = $2`, key, month).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count quota: %w", err)
	}

	return count, nil
}

// Set pins the key's counter for the month.
func (r *QuotaRepo) Set(ctx context.Context, key, month string, count int) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO provider_quota (key, month, count)
		VALUES ($1, $2, $3)
		ON CONFLICT (key, month) DO UPDATE SET count = EXCLUDED.count`, key, month, count)
	if err != nil {
		return fmt.Errorf("set quota: %w", err)
	}

	return nil
}
