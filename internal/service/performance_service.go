package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-performance-api/internal/models"
	"github.com/noah-isme/sma-performance-api/internal/performance"
	"github.com/noah-isme/sma-performance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-performance-api/pkg/errors"
)

type performanceStore interface {
	LoadStudentSnapshot(ctx context.Context, q repository.StudentSnapshotQuery) (*models.StudentSnapshot, error)
	LoadClassSnapshot(ctx context.Context, classID string, period models.Period) (*models.ClassSnapshot, error)
}

type accessAuthorizer interface {
	AuthorizeStudent(ctx context.Context, actor Actor, studentID string) error
	AuthorizeClass(ctx context.Context, actor Actor, classID string) error
}

// PerformanceService loads snapshots and runs the performance engine over them.
// Results of the Load* methods are cached; the actor-facing methods authorize first.
type PerformanceService struct {
	store   performanceStore
	access  accessAuthorizer
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewPerformanceService constructs the performance service.
func NewPerformanceService(store performanceStore, access accessAuthorizer, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *PerformanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformanceService{store: store, access: access, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// CurrentAcademicYear returns the academic year containing today.
func (s *PerformanceService) CurrentAcademicYear() int {
	return performance.AcademicYearForDate(s.now())
}

// Transcript returns the student's transcript when the actor may read it.
func (s *PerformanceService) Transcript(ctx context.Context, actor Actor, studentID string) (*models.TranscriptData, bool, error) {
	if err := s.authorizeStudent(ctx, actor, studentID); err != nil {
		return nil, false, err
	}
	return s.LoadTranscript(ctx, studentID)
}

// LoadTranscript computes the transcript without access checks.
func (s *PerformanceService) LoadTranscript(ctx context.Context, studentID string) (*models.TranscriptData, bool, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	var cached models.TranscriptData
	if s.cache.Lookup(ctx, CacheKindTranscript, &cached, studentID) {
		return &cached, true, nil
	}

	snapshot, err := s.loadStudent(ctx, "transcript_snapshot", repository.StudentSnapshotQuery{StudentID: studentID, ClassmatesLatest: true})
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	transcript := performance.BuildTranscript(performance.TranscriptInput{
		Student:         snapshot.Student,
		Classes:         snapshot.Classes,
		Enrollments:     snapshot.Enrollments,
		Subjects:        snapshot.Subjects,
		Scores:          snapshot.Scores,
		Attendance:      snapshot.Attendance,
		ClassDays:       snapshot.ClassDays,
		Progressions:    snapshot.Progressions,
		ClassmateScores: snapshot.ClassmateScores,
	})
	s.metrics.ObserveComputation("transcript", time.Since(start))

	s.cache.Store(ctx, CacheKindTranscript, transcript, studentID)
	return &transcript, false, nil
}

// Monthly returns the October to September timeline of one academic year.
func (s *PerformanceService) Monthly(ctx context.Context, actor Actor, studentID string, academicYear int) ([]models.MonthlySlot, bool, error) {
	if err := s.authorizeStudent(ctx, actor, studentID); err != nil {
		return nil, false, err
	}
	if err := validateAcademicYear(academicYear); err != nil {
		return nil, false, err
	}
	year := strconv.Itoa(academicYear)
	var cached []models.MonthlySlot
	if s.cache.Lookup(ctx, CacheKindMonthly, &cached, studentID, year) {
		return cached, true, nil
	}

	snapshot, err := s.loadStudent(ctx, "monthly_snapshot", repository.StudentSnapshotQuery{
		StudentID:      studentID,
		AcademicYear:   &academicYear,
		ClassmatesYear: &academicYear,
	})
	if err != nil {
		return nil, false, err
	}
	if err := requireAcademicYear(snapshot, studentID, academicYear); err != nil {
		return nil, false, err
	}

	start := time.Now()
	class, known := performance.ResolveClass(studentID, academicYear, snapshot.Enrollments, snapshot.Scores, snapshot.Attendance, snapshot.Classes)
	input := performance.MonthlyInput{
		StudentID:    studentID,
		AcademicYear: academicYear,
		Class:        class,
		Records:      snapshot.Scores,
		ClassRecords: snapshot.ClassmateScores,
	}
	if known {
		input.Subjects = snapshot.Subjects
	}
	slots := performance.BuildMonthlySummaries(input)
	s.metrics.ObserveComputation("monthly", time.Since(start))

	s.cache.Store(ctx, CacheKindMonthly, slots, studentID, year)
	return slots, false, nil
}

// Attendance summarizes the student's attendance for the period. Attendance is
// always read fresh.
func (s *PerformanceService) Attendance(ctx context.Context, actor Actor, studentID string, period models.Period) (*models.AttendanceSummary, error) {
	if err := s.authorizeStudent(ctx, actor, studentID); err != nil {
		return nil, err
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	year := period.AcademicYear
	snapshot, err := s.loadStudent(ctx, "attendance_snapshot", repository.StudentSnapshotQuery{StudentID: studentID, AcademicYear: &year})
	if err != nil {
		return nil, err
	}
	if err := requireAcademicYear(snapshot, studentID, year); err != nil {
		return nil, err
	}

	start := time.Now()
	summary := performance.BuildAttendanceSummary(performance.StudentAttendanceInput{
		StudentID:   studentID,
		Period:      period,
		Enrollments: snapshot.Enrollments,
		Scores:      snapshot.Scores,
		Attendance:  snapshot.Attendance,
		ClassDays:   snapshot.ClassDays,
	})
	s.metrics.ObserveComputation("attendance", time.Since(start))
	return &summary, nil
}

// ClassReport ranks the class for the period when the actor may read it.
func (s *PerformanceService) ClassReport(ctx context.Context, actor Actor, classID string, period models.Period) (*models.ClassReportSummary, bool, error) {
	classID = strings.TrimSpace(classID)
	if classID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	if s.access != nil {
		if err := s.access.AuthorizeClass(ctx, actor, classID); err != nil {
			return nil, false, err
		}
	}
	return s.LoadClassReport(ctx, classID, period)
}

// LoadClassReport computes the class report without access checks.
func (s *PerformanceService) LoadClassReport(ctx context.Context, classID string, period models.Period) (*models.ClassReportSummary, bool, error) {
	if err := validatePeriod(period); err != nil {
		return nil, false, err
	}
	keyParts := []string{classID, strconv.Itoa(period.AcademicYear), "all"}
	if period.Month != nil {
		keyParts[2] = strconv.Itoa(*period.Month)
	}
	var cached models.ClassReportSummary
	if s.cache.Lookup(ctx, CacheKindClassReport, &cached, keyParts...) {
		return &cached, true, nil
	}

	start := time.Now()
	snapshot, err := s.store.LoadClassSnapshot(ctx, classID, period)
	s.metrics.ObserveDBQuery("class_snapshot", time.Since(start))
	if err != nil {
		return nil, false, s.mapLoadError(err, "class not found", zap.String("class_id", classID))
	}

	start = time.Now()
	report := performance.BuildClassReport(performance.ClassReportInput{
		Class:    snapshot.Class,
		Period:   period,
		Students: snapshot.Students,
		Subjects: snapshot.Subjects,
		Records:  snapshot.Scores,
	})
	s.metrics.ObserveComputation("class_report", time.Since(start))

	s.cache.Store(ctx, CacheKindClassReport, report, keyParts...)
	return &report, false, nil
}

// InvalidateStudent drops the cached results of a student.
func (s *PerformanceService) InvalidateStudent(ctx context.Context, studentID string) error {
	for _, kind := range []string{CacheKindTranscript, CacheKindMonthly} {
		if err := s.cache.Purge(ctx, kind, studentID); err != nil {
			return err
		}
	}
	return nil
}

func (s *PerformanceService) authorizeStudent(ctx context.Context, actor Actor, studentID string) error {
	if strings.TrimSpace(studentID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if s.access == nil {
		return nil
	}
	return s.access.AuthorizeStudent(ctx, actor, studentID)
}

func (s *PerformanceService) loadStudent(ctx context.Context, label string, q repository.StudentSnapshotQuery) (*models.StudentSnapshot, error) {
	start := time.Now()
	snapshot, err := s.store.LoadStudentSnapshot(ctx, q)
	s.metrics.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		return nil, s.mapLoadError(err, "student not found", zap.String("student_id", q.StudentID))
	}
	return snapshot, nil
}

func (s *PerformanceService) mapLoadError(err error, notFound string, field zap.Field) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "performance data unavailable")
	}
	s.logger.Error("failed to load performance snapshot", field, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load performance data")
}

func validateAcademicYear(year int) error {
	if year < 1900 || year > 9999 {
		return appErrors.Clone(appErrors.ErrValidation, "academic year is out of range")
	}
	return nil
}

// requireAcademicYear rejects a year the student has no record in.
func requireAcademicYear(snapshot *models.StudentSnapshot, studentID string, year int) error {
	if performance.HasAcademicYear(studentID, year, snapshot.Enrollments, snapshot.Scores, snapshot.Attendance) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
}

func validatePeriod(period models.Period) error {
	if err := validateAcademicYear(period.AcademicYear); err != nil {
		return err
	}
	if period.Month != nil && !performance.ValidMonth(*period.Month) {
		return appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	return nil
}
