package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"campusvoice/internal/issue/models"
	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

// Postgres persists issue aggregates as JSONB documents. The aggregate is the
// unit of consistency, so the whole payload lives in one column and the few
// fields the store filters on (author, creation time) are denormalized
// alongside it. Execute holds a row lock for the whole validate-then-mutate
// sequence so concurrent votes and reports cannot lose updates.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a postgres-backed issue store. The caller owns the
// database handle; open it with the pgx stdlib driver.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the issues table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS issues (
			id         UUID PRIMARY KEY,
			author_id  UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			payload    JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS issues_author_idx ON issues (author_id);
		CREATE INDEX IF NOT EXISTS issues_created_idx ON issues (created_at);
	`)
	if err != nil {
		return fmt.Errorf("migrate issues: %w", err)
	}
	return nil
}

func (p *Postgres) Create(ctx context.Context, issue *models.Issue) error {
	payload, err := json.Marshal(issue)
	if err != nil {
		return fmt.Errorf("encode issue: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO issues (id, author_id, created_at, payload) VALUES ($1, $2, $3, $4)`,
		issue.ID.String(), issue.AuthorID.String(), issue.CreatedAt, payload,
	)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

func (p *Postgres) FindByID(ctx context.Context, issueID id.IssueID) (*models.Issue, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM issues WHERE id = $1`, issueID.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find issue: %w", err)
	}
	return decodeIssue(payload)
}

func (p *Postgres) List(ctx context.Context) ([]*models.Issue, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT payload FROM issues ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var out []*models.Issue
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issue, err := decodeIssue(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

// Execute locks the issue row, runs validate then mutate on the decoded
// aggregate, and writes the result back in the same transaction.
func (p *Postgres) Execute(ctx context.Context, issueID id.IssueID, validate func(*models.Issue) error, mutate func(*models.Issue)) (*models.Issue, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var payload []byte
	err = tx.QueryRowContext(ctx,
		`SELECT payload FROM issues WHERE id = $1 FOR UPDATE`, issueID.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock issue: %w", err)
	}

	issue, err := decodeIssue(payload)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(issue); err != nil {
			return nil, err
		}
	}
	mutate(issue)

	updated, err := json.Marshal(issue)
	if err != nil {
		return nil, fmt.Errorf("encode issue: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE issues SET payload = $2 WHERE id = $1`, issueID.String(), updated,
	); err != nil {
		return nil, fmt.Errorf("update issue: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return issue, nil
}

func (p *Postgres) Delete(ctx context.Context, issueID id.IssueID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM issues WHERE id = $1`, issueID.String())
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteByAuthor(ctx context.Context, userID id.UserID) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM issues WHERE author_id = $1`, userID.String())
	if err != nil {
		return 0, fmt.Errorf("delete issues by author: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete issues by author: %w", err)
	}
	return int(affected), nil
}

// RemoveVotesBy drops userID's vote from every issue that carries one,
// locking each affected row while the counters are rewritten.
func (p *Postgres) RemoveVotesBy(ctx context.Context, userID id.UserID) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx,
		`SELECT id, payload FROM issues WHERE payload->'voted_users' ? $1 FOR UPDATE`,
		userID.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("select voted issues: %w", err)
	}

	type pending struct {
		rowID   string
		payload []byte
	}
	var updates []pending
	for rows.Next() {
		var rowID string
		var payload []byte
		if err := rows.Scan(&rowID, &payload); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan voted issue: %w", err)
		}
		issue, err := decodeIssue(payload)
		if err != nil {
			rows.Close()
			return 0, err
		}
		if !issue.RemoveVote(userID, issue.UpdatedAt) {
			continue
		}
		updated, err := json.Marshal(issue)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("encode issue: %w", err)
		}
		updates = append(updates, pending{rowID: rowID, payload: updated})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate voted issues: %w", err)
	}

	for _, u := range updates {
		if _, err := tx.ExecContext(ctx,
			`UPDATE issues SET payload = $2 WHERE id = $1`, u.rowID, u.payload,
		); err != nil {
			return 0, fmt.Errorf("update voted issue: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(updates), nil
}

func (p *Postgres) AdjustCommentCount(ctx context.Context, issueID id.IssueID, delta int) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE issues
		SET payload = jsonb_set(payload, '{comment_count}',
			to_jsonb(GREATEST(0, COALESCE((payload->>'comment_count')::int, 0) + $2)))
		WHERE id = $1`,
		issueID.String(), delta,
	)
	if err != nil {
		return fmt.Errorf("adjust comment count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust comment count: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func decodeIssue(payload []byte) (*models.Issue, error) {
	var issue models.Issue
	if err := json.Unmarshal(payload, &issue); err != nil {
		return nil, fmt.Errorf("decode issue: %w", err)
	}
	if issue.VotedUsers == nil {
		issue.VotedUsers = make(map[id.UserID]models.VoteKind)
	}
	return &issue, nil
}
