package applications

import (
	"time"

	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/shared/paging"
	"jobboard-backend/internal/users"
)

type ApplicationResponse struct {
	ID          string         `json:"id"`
	JobID       string         `json:"jobId"`
	ApplicantID string         `json:"applicantId"`
	Resume      string         `json:"resume"`
	CoverLetter string         `json:"coverLetter,omitempty"`
	Status      Status         `json:"status"`
	Notes       string         `json:"notes,omitempty"`
	ReviewedAt  *time.Time     `json:"reviewedAt"`
	ReviewedBy  string         `json:"reviewedBy,omitempty"`
	Job         *jobs.Summary  `json:"job,omitempty"`
	Applicant   *users.Summary `json:"applicant,omitempty"`
	Reviewer    *users.Summary `json:"reviewer,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type ListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Pagination   paging.Meta           `json:"pagination"`
}

func toResponse(v View) ApplicationResponse {
	return ApplicationResponse{
		ID:          v.ID,
		JobID:       v.JobID,
		ApplicantID: v.ApplicantID,
		Resume:      v.ResumeURL,
		CoverLetter: v.CoverLetter,
		Status:      v.Status,
		Notes:       v.Notes,
		ReviewedAt:  v.ReviewedAt,
		ReviewedBy:  v.ReviewedBy,
		Job:         v.Job,
		Applicant:   v.Applicant,
		Reviewer:    v.Reviewer,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func toListResponse(p Page) ListResponse {
	out := ListResponse{Applications: make([]ApplicationResponse, 0, len(p.Applications)), Pagination: p.Meta}
	for _, v := range p.Applications {
		out.Applications = append(out.Applications, toResponse(v))
	}
	return out
}
