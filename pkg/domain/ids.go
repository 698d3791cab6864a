// Package domain holds typed identifiers shared across the application.
//
// IDs are distinct UUID types so the compiler rejects cross-type assignment
// (an IssueID can never be passed where a UserID is expected). Parsing happens
// once at trust boundaries; everything past the handler layer works with the
// typed value.
package domain

import (
	"github.com/google/uuid"

	dErrors "campusvoice/pkg/domain-errors"
)

type (
	// UserID identifies a session identity (student or admin).
	UserID uuid.UUID
	// IssueID identifies a reported issue.
	IssueID uuid.UUID
	// CommentID identifies a comment on an issue.
	CommentID uuid.UUID
	// ReportID identifies a moderation report.
	ReportID uuid.UUID
	// NotificationID identifies a notification.
	NotificationID uuid.UUID
	// AppealID identifies an account appeal.
	AppealID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id IssueID) String() string        { return uuid.UUID(id).String() }
func (id CommentID) String() string      { return uuid.UUID(id).String() }
func (id ReportID) String() string       { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id AppealID) String() string       { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id IssueID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// The typed IDs marshal as their canonical UUID string, including as JSON map
// keys. Defined types do not inherit uuid.UUID's TextMarshaler, so each type
// carries its own.

func (id UserID) MarshalText() ([]byte, error)         { return marshalText(uuid.UUID(id)) }
func (id IssueID) MarshalText() ([]byte, error)        { return marshalText(uuid.UUID(id)) }
func (id CommentID) MarshalText() ([]byte, error)      { return marshalText(uuid.UUID(id)) }
func (id ReportID) MarshalText() ([]byte, error)       { return marshalText(uuid.UUID(id)) }
func (id NotificationID) MarshalText() ([]byte, error) { return marshalText(uuid.UUID(id)) }
func (id AppealID) MarshalText() ([]byte, error)       { return marshalText(uuid.UUID(id)) }

func (id *UserID) UnmarshalText(b []byte) error         { return unmarshalText((*uuid.UUID)(id), b) }
func (id *IssueID) UnmarshalText(b []byte) error        { return unmarshalText((*uuid.UUID)(id), b) }
func (id *CommentID) UnmarshalText(b []byte) error      { return unmarshalText((*uuid.UUID)(id), b) }
func (id *ReportID) UnmarshalText(b []byte) error       { return unmarshalText((*uuid.UUID)(id), b) }
func (id *NotificationID) UnmarshalText(b []byte) error { return unmarshalText((*uuid.UUID)(id), b) }
func (id *AppealID) UnmarshalText(b []byte) error       { return unmarshalText((*uuid.UUID)(id), b) }

func marshalText(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func unmarshalText(dst *uuid.UUID, b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}

// NewUserID generates a fresh user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewIssueID generates a fresh issue ID.
func NewIssueID() IssueID { return IssueID(uuid.New()) }

// NewCommentID generates a fresh comment ID.
func NewCommentID() CommentID { return CommentID(uuid.New()) }

// NewReportID generates a fresh report ID.
func NewReportID() ReportID { return ReportID(uuid.New()) }

// NewNotificationID generates a fresh notification ID.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// NewAppealID generates a fresh appeal ID.
func NewAppealID() AppealID { return AppealID(uuid.New()) }

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseIssueID parses and validates an issue ID from its string form.
func ParseIssueID(s string) (IssueID, error) {
	u, err := parseUUID(s, "issue id")
	return IssueID(u), err
}

// ParseCommentID parses and validates a comment ID from its string form.
func ParseCommentID(s string) (CommentID, error) {
	u, err := parseUUID(s, "comment id")
	return CommentID(u), err
}

// ParseNotificationID parses and validates a notification ID from its string form.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification id")
	return NotificationID(u), err
}

// ParseAppealID parses and validates an appeal ID from its string form.
func ParseAppealID(s string) (AppealID, error) {
	u, err := parseUUID(s, "appeal id")
	return AppealID(u), err
}

// parseUUID rejects empty strings, malformed UUIDs, and the nil UUID.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return u, nil
}
