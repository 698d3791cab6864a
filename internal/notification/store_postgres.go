package notification

import (
	"context"
	"database/sql"
	"fmt"

	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

// PostgresStore persists notifications in a flat table; the payload is small
// and every query is by recipient, so no JSONB document is needed here.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the notifications table when missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id         UUID PRIMARY KEY,
			user_id    UUID NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			message    TEXT NOT NULL,
			issue_id   UUID,
			is_read    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("migrate notifications: %w", err)
	}
	return nil
}

func (p *PostgresStore) Append(ctx context.Context, n Notification) error {
	var issueID any
	if !n.IssueID.IsZero() {
		issueID = n.IssueID.String()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, issue_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID.String(), n.UserID.String(), string(n.Type), n.Title, n.Message, issueID, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]Notification, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, issue_id, is_read, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var rawID, rawUserID, rawType string
		var rawIssueID sql.NullString
		if err := rows.Scan(&rawID, &rawUserID, &rawType, &n.Title, &n.Message, &rawIssueID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if n.ID, err = id.ParseNotificationID(rawID); err != nil {
			return nil, fmt.Errorf("parse notification id: %w", err)
		}
		if n.UserID, err = id.ParseUserID(rawUserID); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if rawIssueID.Valid {
			if n.IssueID, err = id.ParseIssueID(rawIssueID.String); err != nil {
				return nil, fmt.Errorf("parse issue id: %w", err)
			}
		}
		n.Type = Type(rawType)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (p *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID.String(), userID.String(),
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (p *PostgresStore) MarkAllRead(ctx context.Context, userID id.UserID) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1`, userID.String())
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (p *PostgresStore) DeleteByUser(ctx context.Context, userID id.UserID) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE user_id = $1`, userID.String())
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}
