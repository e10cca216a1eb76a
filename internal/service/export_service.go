package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-performance-api/internal/models"
	"github.com/noah-isme/sma-performance-api/internal/performance"
	"github.com/noah-isme/sma-performance-api/pkg/export"
	"github.com/noah-isme/sma-performance-api/pkg/storage"
)

type performanceSource interface {
	LoadTranscript(ctx context.Context, studentID string) (*models.TranscriptData, bool, error)
	LoadClassReport(ctx context.Context, classID string, period models.Period) (*models.ClassReportSummary, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ContentType  string
	ExpiresAt    time.Time
}

// ExportService renders performance results into downloadable documents.
type ExportService struct {
	source  performanceSource
	storage fileStorage
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(source performanceSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		source:  source,
		storage: store,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Generate builds the dataset for the job, renders it and stores the document.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, err := export.ForFormat(export.Format(job.Params.Format))
	if err != nil {
		return nil, err
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Params.Format, err)
	}

	relPath, err := s.storage.Save(s.buildFilename(job, renderer.Extension()), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ContentType:  renderer.ContentType(),
		ExpiresAt:    expiresAt,
	}, nil
}

// VerifyToken validates a download token.
func (s *ExportService) VerifyToken(token string, allowExpired bool) (storage.Grant, error) {
	return s.signer.Verify(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob, extension string) string {
	subject := deref(job.Params.ClassID)
	if job.Type == models.ReportTypeTranscript {
		subject = deref(job.Params.StudentID)
	}
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s_%s.%s", job.Type, sanitizeFilename(subject), timestamp, sanitizeFilename(job.ID), extension)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, error) {
	switch job.Type {
	case models.ReportTypeClassReport:
		return s.buildClassReportDataset(ctx, job.Params)
	case models.ReportTypeTranscript:
		return s.buildTranscriptDataset(ctx, job.Params)
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

var classReportHeaders = []string{"Rank", "Student ID", "Student", "Average", "Grade", "Result"}

func (s *ExportService) buildClassReportDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	report, _, err := s.source.LoadClassReport(ctx, deref(params.ClassID), params.Period())
	if err != nil {
		return export.Dataset{}, err
	}
	return classReportDataset(report), nil
}

func classReportDataset(report *models.ClassReportSummary) export.Dataset {
	rows := make([]map[string]string, 0, len(report.Students)+len(report.UnrankedStudentIDs)+1)
	for _, student := range report.Students {
		rows = append(rows, map[string]string{
			"Rank":       fmt.Sprintf("%d", student.Rank),
			"Student ID": student.StudentID,
			"Student":    student.StudentName,
			"Average":    formatScore(&student.Average),
			"Grade":      student.GradeLevel,
			"Result":     passLabel(student.IsPassing),
		})
	}
	for _, id := range report.UnrankedStudentIDs {
		rows = append(rows, map[string]string{
			"Rank":       "-",
			"Student ID": id,
			"Result":     "No scores",
		})
	}
	stats := report.Statistics
	rows = append(rows, map[string]string{
		"Rank":    "Class",
		"Student": fmt.Sprintf("Pass rate %s%%", formatScore(stats.PassRate)),
		"Average": formatScore(stats.ClassAverage),
		"Grade":   fmt.Sprintf("%d passing / %d failing", stats.PassingCount, stats.FailingCount),
	})

	className := report.ClassName
	if className == "" {
		className = report.ClassID
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Class Report %s %s", className, periodLabel(report.Period)),
		Headers: classReportHeaders,
		Rows:    rows,
	}
}

var transcriptHeaders = []string{"Academic Year", "Class", "Subject", "Coefficient", "Records", "Average", "Grade", "Result"}

func (s *ExportService) buildTranscriptDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	transcript, _, err := s.source.LoadTranscript(ctx, deref(params.StudentID))
	if err != nil {
		return export.Dataset{}, err
	}
	return transcriptDataset(transcript), nil
}

func transcriptDataset(transcript *models.TranscriptData) export.Dataset {
	var rows []map[string]string
	for _, year := range transcript.AcademicYears {
		className := year.ClassName
		if className == "" {
			className = year.ClassID
		}
		for _, subject := range year.Subjects {
			rows = append(rows, map[string]string{
				"Academic Year": year.Label,
				"Class":         className,
				"Subject":       subject.SubjectName,
				"Coefficient":   fmt.Sprintf("%g", subject.Coefficient),
				"Records":       fmt.Sprintf("%d", subject.RecordCount),
				"Average":       formatScore(subject.Average),
				"Grade":         derefOr(subject.GradeLevel, "-"),
				"Result":        resultLabel(subject.Average, subject.IsPassing),
			})
		}
		rows = append(rows, map[string]string{
			"Academic Year": year.Label,
			"Class":         className,
			"Subject":       "Overall",
			"Coefficient":   fmt.Sprintf("%g", year.TotalCoefficient),
			"Average":       formatScore(year.Average),
			"Grade":         derefOr(year.GradeLevel, "-"),
			"Result":        resultLabel(year.Average, year.IsPassing),
		})
	}
	summary := transcript.Summary
	rows = append(rows, map[string]string{
		"Academic Year": "Cumulative",
		"Class":         derefOr(summary.CurrentClass, ""),
		"Average":       formatScore(summary.CumulativeAverage),
		"Grade":         derefOr(summary.CumulativeGrade, "-"),
	})

	title := fmt.Sprintf("Transcript %s", transcript.Student.FullName)
	if transcript.Student.NIS != "" {
		title = fmt.Sprintf("%s (%s)", title, transcript.Student.NIS)
	}
	return export.Dataset{Title: title, Headers: transcriptHeaders, Rows: rows}
}

func periodLabel(period models.Period) string {
	label := performance.AcademicYearLabel(period.AcademicYear)
	if period.Month == nil {
		return label
	}
	if month, ok := performance.MonthByNumber(*period.Month); ok {
		return fmt.Sprintf("%s %s", month.Name, label)
	}
	return label
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func passLabel(passing bool) string {
	if passing {
		return "Pass"
	}
	return "Fail"
}

func resultLabel(average *float64, passing bool) string {
	if average == nil {
		return "-"
	}
	return passLabel(passing)
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func derefOr(ptr *string, fallback string) string {
	if ptr == nil {
		return fallback
	}
	return *ptr
}
