package jobs

import (
	"encoding/json"
	"time"

	"jobboard-backend/internal/shared/paging"
	"jobboard-backend/internal/users"
)

// StatusAnnotation renders as the status string, or null when the
// requester has not applied.
type StatusAnnotation struct {
	Status string
}

func (a StatusAnnotation) MarshalJSON() ([]byte, error) {
	if a.Status == "" {
		return []byte("null"), nil
	}
	return json.Marshal(a.Status)
}

type JobResponse struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	Company             string            `json:"company"`
	Description         string            `json:"description"`
	Location            string            `json:"location"`
	Type                EmploymentType    `json:"type"`
	Category            Category          `json:"category"`
	ExperienceLevel     ExperienceLevel   `json:"experienceLevel,omitempty"`
	Salary              Salary            `json:"salary"`
	Tags                []string          `json:"tags"`
	IsActive            bool              `json:"isActive"`
	Featured            bool              `json:"featured"`
	ApplicationDeadline *time.Time        `json:"applicationDeadline"`
	ApplicationsCount   int               `json:"applicationsCount"`
	ViewsCount          int               `json:"viewsCount"`
	CreatedBy           string            `json:"createdBy"`
	PostedBy            *users.Summary    `json:"postedBy,omitempty"`
	MyApplicationStatus *StatusAnnotation `json:"myApplicationStatus,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

type ListResponse struct {
	Jobs       []JobResponse `json:"jobs"`
	Pagination paging.Meta   `json:"pagination"`
}

func toResponse(v View) JobResponse {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	resp := JobResponse{
		ID:                  v.ID,
		Title:               v.Title,
		Company:             v.Company,
		Description:         v.Description,
		Location:            v.Location,
		Type:                v.Type,
		Category:            v.Category,
		ExperienceLevel:     v.ExperienceLevel,
		Salary:              v.Salary,
		Tags:                tags,
		IsActive:            v.IsActive,
		Featured:            v.Featured,
		ApplicationDeadline: v.ApplicationDeadline,
		ApplicationsCount:   v.ApplicationsCount,
		ViewsCount:          v.ViewsCount,
		CreatedBy:           v.CreatedBy,
		PostedBy:            v.PostedBy,
		CreatedAt:           v.CreatedAt,
		UpdatedAt:           v.UpdatedAt,
	}
	if v.Annotated {
		resp.MyApplicationStatus = &StatusAnnotation{Status: v.MyApplicationStatus}
	}
	return resp
}

func toListResponse(p Page) ListResponse {
	out := ListResponse{Jobs: make([]JobResponse, 0, len(p.Jobs)), Pagination: p.Meta}
	for _, v := range p.Jobs {
		out.Jobs = append(out.Jobs, toResponse(v))
	}
	return out
}
