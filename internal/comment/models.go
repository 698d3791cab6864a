// Package comment implements discussion threads under issues: adding,
// listing, deleting, and community-reporting comments. The issue's comment
// counter is adjusted through the issue store so the two never drift.
package comment

import (
	"context"
	"strings"
	"time"

	"campusvoice/internal/issue/models"
	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
)

// Comment is one reply under an issue.
type Comment struct {
	ID             id.CommentID `json:"id"`
	IssueID        id.IssueID   `json:"issue_id"`
	AuthorID       id.UserID    `json:"author_id"`
	AuthorNickname string       `json:"author_nickname"`
	Content        string       `json:"content"`

	MediaURL  string `json:"media_url,omitempty"`
	MediaType string `json:"media_type,omitempty"`

	// IsAdminResponse marks replies posted from an admin session; clients
	// render them as official responses.
	IsAdminResponse bool `json:"is_admin_response"`

	Reports     []models.Report `json:"reports,omitempty"`
	ReportCount int             `json:"report_count"`
	IsReported  bool            `json:"is_reported"`

	CreatedAt time.Time `json:"created_at"`
}

// NewComment validates and constructs a comment.
func NewComment(commentID id.CommentID, issueID id.IssueID, authorID id.UserID, nickname string, role id.Role, content, mediaURL, mediaType string, now time.Time) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "comment content is required")
	}
	if len(content) > 2000 {
		return nil, dErrors.New(dErrors.CodeValidation, "comment must be 2000 characters or less")
	}
	return &Comment{
		ID:              commentID,
		IssueID:         issueID,
		AuthorID:        authorID,
		AuthorNickname:  nickname,
		Content:         content,
		MediaURL:        mediaURL,
		MediaType:       mediaType,
		IsAdminResponse: role == id.RoleAdmin,
		CreatedAt:       now,
	}, nil
}

// HasReportFrom reports whether reporterID already reported this comment.
func (c *Comment) HasReportFrom(reporterID id.UserID) bool {
	for _, r := range c.Reports {
		if r.ReporterID == reporterID {
			return true
		}
	}
	return false
}

// Store persists comments.
type Store interface {
	Create(ctx context.Context, c *Comment) error
	FindByID(ctx context.Context, commentID id.CommentID) (*Comment, error)
	ListByIssue(ctx context.Context, issueID id.IssueID) ([]*Comment, error)
	Execute(ctx context.Context, commentID id.CommentID, validate func(*Comment) error, mutate func(*Comment)) (*Comment, error)
	Delete(ctx context.Context, commentID id.CommentID) error
	// DeleteByAuthor removes every comment by userID and returns how many
	// were removed per issue, so callers can decrement the counters.
	DeleteByAuthor(ctx context.Context, userID id.UserID) (map[id.IssueID]int, error)
	DeleteByIssue(ctx context.Context, issueID id.IssueID) (int, error)
}
