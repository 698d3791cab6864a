package handler

import (
	"campusvoice/internal/issue/models"
	dErrors "campusvoice/pkg/domain-errors"
)

type createIssueRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	MediaURLs   []string `json:"media_urls,omitempty"`
	MediaTypes  []string `json:"media_types,omitempty"`
	IsUrgent    bool     `json:"is_urgent,omitempty"`
}

type voteRequest struct {
	Type string `json:"type"`
}

func (r voteRequest) kind() (models.VoteKind, error) {
	return models.ParseVoteKind(r.Type)
}

type reportRequest struct {
	Reason       string `json:"reason"`
	CustomReason string `json:"custom_reason,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (r statusRequest) status() (models.Status, error) {
	return models.ParseStatus(r.Status)
}

type assignRequest struct {
	Department       string `json:"department"`
	CustomDepartment string `json:"custom_department,omitempty"`
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

func (r priorityRequest) priority() (models.Priority, error) {
	return models.ParsePriority(r.Priority)
}

type urgentRequest struct {
	IsUrgent *bool `json:"is_urgent"`
}

func (r urgentRequest) validate() error {
	if r.IsUrgent == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "is_urgent is required")
	}
	return nil
}
