package models

import "time"

// ProjectStatus represents where a project sits in the review workflow.
type ProjectStatus string

const (
	StatusDraft         ProjectStatus = "draft"
	StatusAIReviewing   ProjectStatus = "ai_reviewing"
	StatusAICompleted   ProjectStatus = "ai_completed"
	StatusDeptReviewing ProjectStatus = "dept_reviewing"
	StatusApproved      ProjectStatus = "approved"
)

// Valid reports whether the status is a known workflow status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusAIReviewing, StatusAICompleted, StatusDeptReviewing, StatusApproved:
		return true
	}
	return false
}

// Reviewed reports whether a project in this status carries an AI review.
// AIReview is non-nil exactly in these statuses.
func (s ProjectStatus) Reviewed() bool {
	switch s {
	case StatusAICompleted, StatusDeptReviewing, StatusApproved:
		return true
	}
	return false
}

// Project represents one fair-competition compliance review case.
type Project struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	PolicyTitle      string        `json:"policyTitle"`
	Organization     string        `json:"organization"`
	DraftType        string        `json:"draftType"`
	Scope            string        `json:"scope"`
	ReleaseDate      string        `json:"releaseDate"`
	Document         string        `json:"document"` // policy document body under review
	Confidential     bool          `json:"confidential"`
	ExceptionApplies bool          `json:"exceptionApplies"`
	Status           ProjectStatus `json:"status"`
	AIReview         *AIReview     `json:"aiReview,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
