package comment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

// PostgresStore persists comments as JSONB documents keyed by comment ID,
// with the issue and author denormalized for the list and cascade queries.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the comments table when missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comments (
			id         UUID PRIMARY KEY,
			issue_id   UUID NOT NULL,
			author_id  UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			payload    JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS comments_issue_idx ON comments (issue_id, created_at);
		CREATE INDEX IF NOT EXISTS comments_author_idx ON comments (author_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate comments: %w", err)
	}
	return nil
}

func (p *PostgresStore) Create(ctx context.Context, c *Comment) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode comment: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO comments (id, issue_id, author_id, created_at, payload) VALUES ($1, $2, $3, $4, $5)`,
		c.ID.String(), c.IssueID.String(), c.AuthorID.String(), c.CreatedAt, payload,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (p *PostgresStore) FindByID(ctx context.Context, commentID id.CommentID) (*Comment, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM comments WHERE id = $1`, commentID.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return decodeComment(payload)
}

func (p *PostgresStore) ListByIssue(ctx context.Context, issueID id.IssueID) ([]*Comment, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT payload FROM comments WHERE issue_id = $1 ORDER BY created_at`, issueID.String())
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []*Comment
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c, err := decodeComment(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Execute(ctx context.Context, commentID id.CommentID, validate func(*Comment) error, mutate func(*Comment)) (*Comment, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var payload []byte
	err = tx.QueryRowContext(ctx,
		`SELECT payload FROM comments WHERE id = $1 FOR UPDATE`, commentID.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock comment: %w", err)
	}

	c, err := decodeComment(payload)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(c); err != nil {
			return nil, err
		}
	}
	mutate(c)

	updated, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode comment: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE comments SET payload = $2 WHERE id = $1`, commentID.String(), updated,
	); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

func (p *PostgresStore) Delete(ctx context.Context, commentID id.CommentID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID.String())
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (p *PostgresStore) DeleteByAuthor(ctx context.Context, userID id.UserID) (map[id.IssueID]int, error) {
	rows, err := p.db.QueryContext(ctx,
		`DELETE FROM comments WHERE author_id = $1 RETURNING issue_id`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("delete comments by author: %w", err)
	}
	defer rows.Close()

	removed := make(map[id.IssueID]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan deleted comment: %w", err)
		}
		issueID, err := id.ParseIssueID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse issue id: %w", err)
		}
		removed[issueID]++
	}
	return removed, rows.Err()
}

func (p *PostgresStore) DeleteByIssue(ctx context.Context, issueID id.IssueID) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM comments WHERE issue_id = $1`, issueID.String())
	if err != nil {
		return 0, fmt.Errorf("delete comments by issue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete comments by issue: %w", err)
	}
	return int(affected), nil
}

func decodeComment(payload []byte) (*Comment, error) {
	var c Comment
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("decode comment: %w", err)
	}
	return &c, nil
}
