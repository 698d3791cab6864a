// Package models holds the issue aggregate and its invariant-preserving
// mutations. All state changes go through Apply* methods so the counters,
// vote map, timeline, and moderation flags can never drift apart; services
// run these inside the store's Execute callback.
package models

import (
	"strings"
	"time"

	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
)

// VoteKind is the direction of a vote.
type VoteKind string

const (
	VoteUp   VoteKind = "up"
	VoteDown VoteKind = "down"
)

// ParseVoteKind validates a vote direction received at a trust boundary.
func ParseVoteKind(s string) (VoteKind, error) {
	switch VoteKind(s) {
	case VoteUp, VoteDown:
		return VoteKind(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "vote type must be up or down")
	}
}

// Priority is the admin-assigned urgency bucket.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority validates a priority received at a trust boundary.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown priority")
	}
}

// Report is one moderation report against an issue or comment.
// At most one report per reporter per target.
type Report struct {
	ID           id.ReportID `json:"id"`
	ReporterID   id.UserID   `json:"reporter_id"`
	Reason       string      `json:"reason"`
	CustomReason string      `json:"custom_reason,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// TimelineEvent is one entry of the append-only status log.
type TimelineEvent struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	AdminID   string    `json:"admin_id,omitempty"`
	AdminName string    `json:"admin_name,omitempty"`
}

// Resolution is the immutable record attached when an issue enters a terminal
// status.
type Resolution struct {
	Status     Status    `json:"status"`
	Note       string    `json:"note"`
	AdminID    string    `json:"admin_id"`
	AdminName  string    `json:"admin_name"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// VoteMilestones are the net-vote thresholds that trigger a one-time author
// notification on upward crossing.
var VoteMilestones = []int{10, 25, 50, 100}

// Issue is the central aggregate students and admins act on.
//
// Invariants:
//   - Upvotes equals the number of "up" entries in VotedUsers, Downvotes the
//     number of "down" entries; a user holds at most one vote.
//   - ReportCount == len(Reports); at most one report per reporter.
//   - IsReported tracks ReportCount against the reported threshold unless
//     IsFalselyAccused overrides it.
//   - Timeline[0].Status == pending; later entries follow the status graph.
//   - NotifiedMilestones only grows; a milestone notifies at most once.
type Issue struct {
	ID             id.IssueID `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Location       string     `json:"location"`
	AuthorID       id.UserID  `json:"author_id"`
	AuthorNickname string     `json:"author_nickname"`
	AuthorRole     id.Role    `json:"author_role"`

	Status             Status   `json:"status"`
	Priority           Priority `json:"priority,omitempty"`
	AssignedDepartment string   `json:"assigned_department,omitempty"`
	CustomDepartment   string   `json:"custom_department,omitempty"`

	Upvotes    int                    `json:"upvotes"`
	Downvotes  int                    `json:"downvotes"`
	VotedUsers map[id.UserID]VoteKind `json:"voted_users"`

	MediaURLs  []string `json:"media_urls,omitempty"`
	MediaTypes []string `json:"media_types,omitempty"`

	Timeline     []TimelineEvent `json:"timeline"`
	CommentCount int             `json:"comment_count"`

	IsUrgent   bool `json:"is_urgent"`
	IsOfficial bool `json:"is_official"`

	Reports          []Report `json:"reports,omitempty"`
	ReportCount      int      `json:"report_count"`
	IsReported       bool     `json:"is_reported"`
	IsDeleted        bool     `json:"is_deleted"`
	IsFalselyAccused bool     `json:"is_falsely_accused"`

	Resolution *Resolution `json:"resolution,omitempty"`

	NotifiedMilestones []int `json:"notified_milestones,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewIssue constructs a pending issue with a seeded timeline.
func NewIssue(issueID id.IssueID, authorID id.UserID, nickname string, role id.Role, title, description, category, location string, now time.Time) (*Issue, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(title) > 200 {
		return nil, dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if description == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "description is required")
	}
	if strings.TrimSpace(category) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "category is required")
	}
	if strings.TrimSpace(location) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "location is required")
	}

	return &Issue{
		ID:             issueID,
		Title:          title,
		Description:    description,
		Category:       category,
		Location:       location,
		AuthorID:       authorID,
		AuthorNickname: nickname,
		AuthorRole:     role,
		Status:         StatusPending,
		VotedUsers:     make(map[id.UserID]VoteKind),
		IsOfficial:     role == id.RoleAdmin,
		Timeline: []TimelineEvent{{
			ID:        issueID.String(),
			Status:    StatusPending,
			Timestamp: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NetVotes is upvotes minus downvotes.
func (i *Issue) NetVotes() int { return i.Upvotes - i.Downvotes }

// AgeHours is the issue age in hours at the given instant, floored at zero.
func (i *Issue) AgeHours(now time.Time) float64 {
	h := now.Sub(i.CreatedAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// VoteOutcome describes what ApplyVote did.
type VoteOutcome struct {
	// Retracted is true when the same-direction vote toggled off.
	Retracted bool
	// PreviousNet and NewNet bracket the counter change for milestone checks.
	PreviousNet int
	NewNet      int
}

// ApplyVote toggles, flips, or adds userID's vote.
//
// Same direction retracts; opposite direction flips; absent adds. The counter
// arithmetic and the map are updated together so the count invariant holds
// for every sequence of votes.
func (i *Issue) ApplyVote(userID id.UserID, kind VoteKind, now time.Time) VoteOutcome {
	outcome := VoteOutcome{PreviousNet: i.NetVotes()}
	if i.VotedUsers == nil {
		i.VotedUsers = make(map[id.UserID]VoteKind)
	}

	existing, voted := i.VotedUsers[userID]
	switch {
	case voted && existing == kind:
		delete(i.VotedUsers, userID)
		i.decrement(kind)
		outcome.Retracted = true
	case voted:
		i.decrement(existing)
		i.increment(kind)
		i.VotedUsers[userID] = kind
	default:
		i.increment(kind)
		i.VotedUsers[userID] = kind
	}

	i.UpdatedAt = now
	outcome.NewNet = i.NetVotes()
	return outcome
}

// RemoveVote drops userID's vote if present, decrementing the matching
// counter. Used by the logout cascade.
func (i *Issue) RemoveVote(userID id.UserID, now time.Time) bool {
	kind, ok := i.VotedUsers[userID]
	if !ok {
		return false
	}
	delete(i.VotedUsers, userID)
	i.decrement(kind)
	i.UpdatedAt = now
	return true
}

// ClaimMilestone returns the milestone crossed upward by the outcome, marking
// it so it can never fire again. Returns 0 when nothing new was crossed.
func (i *Issue) ClaimMilestone(outcome VoteOutcome) int {
	for _, m := range VoteMilestones {
		if outcome.PreviousNet < m && outcome.NewNet >= m && !i.milestoneNotified(m) {
			i.NotifiedMilestones = append(i.NotifiedMilestones, m)
			return m
		}
	}
	return 0
}

func (i *Issue) milestoneNotified(m int) bool {
	for _, seen := range i.NotifiedMilestones {
		if seen == m {
			return true
		}
	}
	return false
}

func (i *Issue) increment(kind VoteKind) {
	if kind == VoteUp {
		i.Upvotes++
	} else {
		i.Downvotes++
	}
}

func (i *Issue) decrement(kind VoteKind) {
	if kind == VoteUp {
		i.Upvotes--
	} else {
		i.Downvotes--
	}
}

// HasReportFrom reports whether reporterID already reported this issue.
func (i *Issue) HasReportFrom(reporterID id.UserID) bool {
	for _, r := range i.Reports {
		if r.ReporterID == reporterID {
			return true
		}
	}
	return false
}

// CanTransitionTo validates a status change against the workflow graph and
// the note rules. newStatus entering a terminal state needs a documented
// rationale of at least ten characters.
func (i *Issue) CanTransitionTo(newStatus Status, note string) error {
	if !newStatus.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown status")
	}
	if !i.Status.CanTransitionTo(newStatus) {
		return dErrors.New(dErrors.CodeInvariantViolation, "status change from "+string(i.Status)+" to "+string(newStatus)+" is not allowed")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return dErrors.New(dErrors.CodeValidation, "a note is required for status changes")
	}
	if newStatus.IsTerminal() && len(note) < 10 {
		return dErrors.New(dErrors.CodeValidation, "closing notes must be at least 10 characters")
	}
	return nil
}

// ApplyStatus records a validated status change: appends the timeline event,
// moves the status, and attaches the immutable resolution when terminal.
// Call CanTransitionTo first.
func (i *Issue) ApplyStatus(newStatus Status, note, adminID, adminName string, now time.Time) {
	i.Status = newStatus
	i.Timeline = append(i.Timeline, TimelineEvent{
		ID:        adminID + "-" + now.UTC().Format(time.RFC3339Nano),
		Status:    newStatus,
		Timestamp: now,
		Note:      note,
		AdminID:   adminID,
		AdminName: adminName,
	})
	if newStatus.IsTerminal() {
		i.Resolution = &Resolution{
			Status:     newStatus,
			Note:       note,
			AdminID:    adminID,
			AdminName:  adminName,
			ResolvedAt: now,
		}
	}
	i.UpdatedAt = now
}
