package applications

import "time"

type Status string

const (
	StatusPending     Status = "pending"
	StatusReviewed    Status = "reviewed"
	StatusShortlisted Status = "shortlisted"
	StatusInterviewed Status = "interviewed"
	StatusHired       Status = "hired"
	StatusRejected    Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusShortlisted, StatusInterviewed, StatusHired, StatusRejected:
		return true
	}
	return false
}

// Withdrawable reports whether the applicant may still pull the application.
// Reviewers can move an application out of hired or rejected; applicants
// cannot withdraw from them.
func (s Status) Withdrawable() bool {
	return s != StatusHired && s != StatusRejected
}

type Application struct {
	ID          string
	JobID       string
	ApplicantID string
	ResumeURL   string
	CoverLetter string
	Status      Status
	Notes       string
	ReviewedAt  *time.Time
	ReviewedBy  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
