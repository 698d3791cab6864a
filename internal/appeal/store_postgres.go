package appeal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

// PostgresStore persists appeals as JSONB documents with the review state
// denormalized for the one-pending-per-user check.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the appeals table when missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS appeals (
			id         UUID PRIMARY KEY,
			user_id    UUID NOT NULL,
			status     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			payload    JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS appeals_user_idx ON appeals (user_id, status);
	`)
	if err != nil {
		return fmt.Errorf("migrate appeals: %w", err)
	}
	return nil
}

func (p *PostgresStore) Create(ctx context.Context, a *Appeal) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode appeal: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO appeals (id, user_id, status, created_at, payload) VALUES ($1, $2, $3, $4, $5)`,
		a.ID.String(), a.UserID.String(), string(a.Status), a.CreatedAt, payload,
	)
	if err != nil {
		return fmt.Errorf("insert appeal: %w", err)
	}
	return nil
}

func (p *PostgresStore) FindByID(ctx context.Context, appealID id.AppealID) (*Appeal, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM appeals WHERE id = $1`, appealID.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find appeal: %w", err)
	}
	return decodeAppeal(payload)
}

func (p *PostgresStore) List(ctx context.Context) ([]*Appeal, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT payload FROM appeals ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list appeals: %w", err)
	}
	defer rows.Close()

	var out []*Appeal
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan appeal: %w", err)
		}
		a, err := decodeAppeal(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *PostgresStore) HasPendingForUser(ctx context.Context, userID id.UserID) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM appeals WHERE user_id = $1 AND status = $2)`,
		userID.String(), string(StatusPending),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending appeals: %w", err)
	}
	return exists, nil
}

func (p *PostgresStore) Execute(ctx context.Context, appealID id.AppealID, validate func(*Appeal) error, mutate func(*Appeal)) (*Appeal, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var payload []byte
	err = tx.QueryRowContext(ctx,
		`SELECT payload FROM appeals WHERE id = $1 FOR UPDATE`, appealID.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock appeal: %w", err)
	}

	a, err := decodeAppeal(payload)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(a); err != nil {
			return nil, err
		}
	}
	mutate(a)

	updated, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode appeal: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE appeals SET payload = $2, status = $3 WHERE id = $1`,
		appealID.String(), updated, string(a.Status),
	); err != nil {
		return nil, fmt.Errorf("update appeal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

func decodeAppeal(payload []byte) (*Appeal, error) {
	var a Appeal
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode appeal: %w", err)
	}
	return &a, nil
}
