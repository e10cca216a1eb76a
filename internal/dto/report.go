package dto

import "github.com/noah-isme/sma-performance-api/internal/models"

// ReportRequest captures POST /reports/generate payload.
type ReportRequest struct {
	Type         models.ReportType   `json:"type" validate:"required,oneof=class_report transcript"`
	AcademicYear int                 `json:"academicYear" validate:"required,gte=1900,lte=9999"`
	Month        *int                `json:"month,omitempty" validate:"omitempty,gte=1,lte=12"`
	ClassID      *string             `json:"classId,omitempty" validate:"omitempty,min=1,max=64"`
	StudentID    *string             `json:"studentId,omitempty" validate:"omitempty,min=1,max=64"`
	Format       models.ReportFormat `json:"format" validate:"required,oneof=csv pdf xlsx"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID         string                 `json:"id"`
	Type       models.ReportType      `json:"type"`
	Status     models.ReportStatus    `json:"status"`
	Progress   int                    `json:"progress"`
	Params     models.ReportJobParams `json:"params"`
	ResultURL  *string                `json:"resultUrl,omitempty"`
	Error      *string                `json:"error,omitempty"`
	FinishedAt *string                `json:"finishedAt,omitempty"`
}
