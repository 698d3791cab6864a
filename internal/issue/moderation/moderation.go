// Package moderation is the report-threshold engine: pure, deterministic
// functions from an issue's report list (plus explicit admin actions) to its
// visibility flags. Services run these inside store Execute callbacks; the
// functions themselves never touch storage.
package moderation

import (
	"time"

	"campusvoice/internal/issue/models"
	id "campusvoice/pkg/domain"
)

// Default thresholds. Both are overridable through configuration.
const (
	DefaultReportedThreshold = 3
	DefaultDeleteThreshold   = 10
)

// Engine evaluates report thresholds against configured limits.
type Engine struct {
	ReportedThreshold int
	DeleteThreshold   int
}

// NewEngine builds an engine, substituting defaults for non-positive limits.
func NewEngine(reportedThreshold, deleteThreshold int) Engine {
	if reportedThreshold <= 0 {
		reportedThreshold = DefaultReportedThreshold
	}
	if deleteThreshold <= 0 {
		deleteThreshold = DefaultDeleteThreshold
	}
	return Engine{ReportedThreshold: reportedThreshold, DeleteThreshold: deleteThreshold}
}

// AddReport appends a report and recomputes the moderation flags.
// A duplicate report from the same reporter is a no-op and returns false.
func (e Engine) AddReport(issue *models.Issue, reporterID id.UserID, reason, customReason string, now time.Time) bool {
	if issue.HasReportFrom(reporterID) {
		return false
	}
	issue.Reports = append(issue.Reports, models.Report{
		ID:           id.NewReportID(),
		ReporterID:   reporterID,
		Reason:       reason,
		CustomReason: customReason,
		CreatedAt:    now,
	})
	e.recount(issue)
	issue.UpdatedAt = now
	return true
}

// recount derives the flags from the report list. IsFalselyAccused suppresses
// both thresholds; soft deletion only ever latches on, never off, so an admin
// restore is not undone by a recount.
func (e Engine) recount(issue *models.Issue) {
	issue.ReportCount = len(issue.Reports)
	if issue.IsFalselyAccused {
		issue.IsReported = false
		return
	}
	issue.IsReported = issue.ReportCount >= e.ReportedThreshold
	if issue.ReportCount >= e.DeleteThreshold {
		issue.IsDeleted = true
	}
}

// Restore clears the soft-delete flag and resets the status to pending.
// Reports, the report count, and the reported flag are retained: a restored
// issue can still show as reported.
func Restore(issue *models.Issue, now time.Time) {
	issue.IsDeleted = false
	resetToPending(issue, now)
}

// MarkFalselyAccused is the stronger admin override: restore plus a flag that
// excludes the issue from reported and deleted views regardless of its
// report count.
func MarkFalselyAccused(issue *models.Issue, now time.Time) {
	issue.IsDeleted = false
	issue.IsFalselyAccused = true
	issue.IsReported = false
	resetToPending(issue, now)
}

func resetToPending(issue *models.Issue, now time.Time) {
	if issue.Status != models.StatusPending {
		issue.Timeline = append(issue.Timeline, models.TimelineEvent{
			ID:        "restore-" + now.UTC().Format(time.RFC3339Nano),
			Status:    models.StatusPending,
			Timestamp: now,
		})
	}
	issue.Status = models.StatusPending
	issue.Resolution = nil
	issue.UpdatedAt = now
}
