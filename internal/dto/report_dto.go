package dto

import (
	"time"

	"anoa.com/reportdesk/internal/model"
	"github.com/google/uuid"
)

type CreateReportInput struct {
	Title   string `json:"title" form:"title" binding:"required,max=255"`
	Content string `json:"content" form:"content"`
}

// UpdateReportInput is a patch with the same presence semantics as
// UpdateProfileInput.
type UpdateReportInput struct {
	Title   *string `json:"title" form:"title" binding:"omitempty,max=255"`
	Content *string `json:"content" form:"content"`
}

type ReportFileResponse struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type ReportResponse struct {
	ID           uuid.UUID            `json:"id"`
	UserID       *uuid.UUID           `json:"user_id"`
	Title        string               `json:"title"`
	Content      string               `json:"content"`
	Status       string               `json:"status"`
	ApprovedByID *uuid.UUID           `json:"approved_by_id,omitempty"`
	ApprovedAt   *time.Time           `json:"approved_at,omitempty"`
	Files        []ReportFileResponse `json:"files"`
	CreatedAt    time.Time            `json:"created_at"`
}

func NewReportResponse(r *model.Report) *ReportResponse {
	if r == nil {
		return nil
	}

	files := make([]ReportFileResponse, 0, len(r.Files))
	for _, f := range r.Files {
		files = append(files, ReportFileResponse{
			URL:  f.FileURL,
			Name: f.FileName,
			Type: f.FileType,
		})
	}

	return &ReportResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		Title:        r.Title,
		Content:      r.Content,
		Status:       r.Status,
		ApprovedByID: r.ApprovedByID,
		ApprovedAt:   r.ApprovedAt,
		Files:        files,
		CreatedAt:    r.CreatedAt,
	}
}

func NewReportResponses(reports []*model.Report) []*ReportResponse {
	out := make([]*ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, NewReportResponse(r))
	}
	return out
}
