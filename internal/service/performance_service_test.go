package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-performance-api/internal/models"
	"github.com/noah-isme/sma-performance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-performance-api/pkg/errors"
)

type memoryCacheRepo struct {
	store   map[string][]byte
	deleted []string
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	for key := range m.store {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.store, key)
		}
	}
	return nil
}

type performanceStoreStub struct {
	student      *models.StudentSnapshot
	class        *models.ClassSnapshot
	err          error
	queries      []repository.StudentSnapshotQuery
	classPeriods []models.Period
}

func (s *performanceStoreStub) LoadStudentSnapshot(ctx context.Context, q repository.StudentSnapshotQuery) (*models.StudentSnapshot, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.student, nil
}

func (s *performanceStoreStub) LoadClassSnapshot(ctx context.Context, classID string, period models.Period) (*models.ClassSnapshot, error) {
	s.classPeriods = append(s.classPeriods, period)
	if s.err != nil {
		return nil, s.err
	}
	return s.class, nil
}

func scoreRecord(studentID, subjectID string, value float64, month, year int) models.ScoreRecord {
	return models.ScoreRecord{
		ID:           fmt.Sprintf("%s-%s-%d-%d", studentID, subjectID, year, month),
		StudentID:    studentID,
		SubjectID:    subjectID,
		ClassID:      "10A",
		Score:        value,
		MaxScore:     50,
		MonthNumber:  month,
		CalendarYear: year,
	}
}

func curriculum() []models.Subject {
	return []models.Subject{
		{ID: "math", Code: "MATH", Name: "Mathematics", Coefficient: ptrFloat(2), MaxScore: 50, Applicability: models.Universal()},
		{ID: "khmer", Code: "KHM", Name: "Khmer", Coefficient: ptrFloat(1), MaxScore: 50, Applicability: models.Universal()},
	}
}

func studentSnapshot() *models.StudentSnapshot {
	classDays := make([]models.ClassDay, 0, 10)
	for d := 1; d <= 10; d++ {
		classDays = append(classDays, models.ClassDay{ClassID: "10A", Date: time.Date(2024, time.October, d, 0, 0, 0, 0, time.UTC)})
	}
	return &models.StudentSnapshot{
		Student:     models.Student{ID: "s1", NIS: "0001", FullName: "Dara"},
		Classes:     []models.Class{{ID: "10A", Name: "10A", GradeLevel: 10}},
		Enrollments: []models.Enrollment{{StudentID: "s1", ClassID: "10A", AcademicYear: 2024}},
		Subjects:    curriculum(),
		Scores: []models.ScoreRecord{
			scoreRecord("s1", "math", 40, 10, 2024),
			scoreRecord("s1", "khmer", 25, 10, 2024),
		},
		Attendance: []models.AttendanceRecord{
			{StudentID: "s1", ClassID: "10A", Date: time.Date(2024, time.October, 2, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusAbsent},
			{StudentID: "s1", ClassID: "10A", Date: time.Date(2024, time.October, 3, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusPresent},
		},
		ClassDays: classDays,
		ClassmateScores: []models.ScoreRecord{
			scoreRecord("s1", "math", 40, 10, 2024),
			scoreRecord("s1", "khmer", 25, 10, 2024),
			scoreRecord("s2", "math", 50, 10, 2024),
			scoreRecord("s2", "khmer", 50, 10, 2024),
		},
	}
}

func classSnapshot() *models.ClassSnapshot {
	return &models.ClassSnapshot{
		Class:    models.Class{ID: "10A", Name: "10A", GradeLevel: 10},
		Students: []models.Student{{ID: "s1", FullName: "Dara"}, {ID: "s2", FullName: "Bopha"}, {ID: "s3", FullName: "Sok"}},
		Subjects: curriculum(),
		Scores: []models.ScoreRecord{
			scoreRecord("s1", "math", 40, 10, 2024),
			scoreRecord("s1", "khmer", 25, 10, 2024),
			scoreRecord("s2", "math", 50, 10, 2024),
		},
	}
}

func newPerformanceServiceForTest(store *performanceStoreStub, access *accessStub) (*PerformanceService, *memoryCacheRepo, *MetricsService) {
	cacheRepo := &memoryCacheRepo{}
	metrics := NewMetricsService()
	cache := NewCacheService(cacheRepo, metrics, time.Minute, zap.NewNop(), true)
	svc := NewPerformanceService(store, access, cache, metrics, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC) }
	return svc, cacheRepo, metrics
}

func TestPerformanceServiceTranscriptCaching(t *testing.T) {
	store := &performanceStoreStub{student: studentSnapshot()}
	svc, cacheRepo, metrics := newPerformanceServiceForTest(store, &accessStub{allowStudent: true})
	ctx := context.Background()

	transcript, hit, err := svc.Transcript(ctx, adminActor, "s1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, transcript.AcademicYears, 1)
	year := transcript.AcademicYears[0]
	require.NotNil(t, year.Average)
	assert.Equal(t, 35.0, *year.Average)
	assert.Equal(t, "C", *year.GradeLevel)
	require.NotNil(t, year.Attendance.AttendanceRate)
	assert.Equal(t, 90.0, *year.Attendance.AttendanceRate)
	require.Len(t, transcript.MonthlySummaries, 12)
	require.NotNil(t, transcript.MonthlySummaries[0].ClassRank)
	assert.Equal(t, 2, *transcript.MonthlySummaries[0].ClassRank)

	require.Len(t, store.queries, 1)
	assert.True(t, store.queries[0].ClassmatesLatest)
	assert.Nil(t, store.queries[0].AcademicYear)
	assert.Contains(t, cacheRepo.store, "transcript:s1")

	cached, hit, err := svc.Transcript(ctx, adminActor, "s1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, store.queries, 1)
	assert.Equal(t, transcript.Summary, cached.Summary)
	assert.EqualValues(t, 1, metrics.Snapshot().Computations)
	assert.EqualValues(t, 1, metrics.Snapshot().CacheHits)
}

func TestPerformanceServiceTranscriptNotFound(t *testing.T) {
	store := &performanceStoreStub{err: fmt.Errorf("get student: %w", sql.ErrNoRows)}
	svc, _, _ := newPerformanceServiceForTest(store, &accessStub{allowStudent: true})

	_, _, err := svc.Transcript(context.Background(), adminActor, "missing")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Equal(t, "student not found", appErrors.FromError(err).Message)
}

func TestPerformanceServiceStoreFailureIsInternal(t *testing.T) {
	store := &performanceStoreStub{err: errors.New("connection reset")}
	svc, _, _ := newPerformanceServiceForTest(store, &accessStub{allowClass: true})

	_, _, err := svc.ClassReport(context.Background(), adminActor, "10A", models.Period{AcademicYear: 2024})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInternal.Code))
}

func TestPerformanceServiceForbiddenSkipsStore(t *testing.T) {
	store := &performanceStoreStub{student: studentSnapshot()}
	svc, _, _ := newPerformanceServiceForTest(store, &accessStub{})

	_, _, err := svc.Transcript(context.Background(), Actor{UserID: "u", Role: models.RoleStudent}, "s1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))
	assert.Empty(t, store.queries)
}

func TestPerformanceServiceMonthly(t *testing.T) {
	store := &performanceStoreStub{student: studentSnapshot()}
	svc, _, _ := newPerformanceServiceForTest(store, &accessStub{allowStudent: true})

	slots, hit, err := svc.Monthly(context.Background(), adminActor, "s1", 2024)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, slots, 12)
	assert.Equal(t, 10, slots[0].MonthNumber)
	assert.True(t, slots[0].HasData)
	assert.True(t, slots[0].IsComplete)
	assert.Equal(t, 9, slots[11].MonthNumber)
	assert.False(t, slots[11].HasData)

	require.Len(t, store.queries, 1)
	assert.Equal(t, 2024, *store.queries[0].AcademicYear)
	assert.Equal(t, 2024, *store.queries[0].ClassmatesYear)

	_, _, err = svc.Monthly(context.Background(), adminActor, "s1", 12)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestPerformanceServiceAttendance(t *testing.T) {
	store := &performanceStoreStub{student: studentSnapshot()}
	svc, _, _ := newPerformanceServiceForTest(store, &accessStub{allowStudent: true})

	summary, err := svc.Attendance(context.Background(), adminActor, "s1", models.Period{AcademicYear: 2024, Month: ptrInt(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, summary.SchoolDays)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, 1, summary.Present)
	require.NotNil(t, summary.AttendanceRate)
	assert.Equal(t, 90.0, *summary.AttendanceRate)

	_, err = svc.Attendance(context.Background(), adminActor, "s1", models.Period{AcademicYear: 2024, Month: ptrInt(13)})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestPerformanceServiceUnknownAcademicYear(t *testing.T) {
	store := &performanceStoreStub{student: &models.StudentSnapshot{
		Student:  models.Student{ID: "s1"},
		Classes:  []models.Class{{ID: "10A", Name: "10A", GradeLevel: 10}},
		Subjects: curriculum(),
	}}
	svc, cacheRepo, _ := newPerformanceServiceForTest(store, &accessStub{allowStudent: true})

	_, _, err := svc.Monthly(context.Background(), adminActor, "s1", 1990)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Equal(t, "academic year not found", appErrors.FromError(err).Message)
	assert.Empty(t, cacheRepo.store)

	_, err = svc.Attendance(context.Background(), adminActor, "s1", models.Period{AcademicYear: 1990})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	store.student.Attendance = []models.AttendanceRecord{
		{StudentID: "s1", ClassID: "10A", Date: time.Date(1991, time.March, 4, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusPresent},
	}
	summary, err := svc.Attendance(context.Background(), adminActor, "s1", models.Period{AcademicYear: 1990})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Present)
}

func TestPerformanceServiceClassReport(t *testing.T) {
	store := &performanceStoreStub{class: classSnapshot()}
	access := &accessStub{allowClass: true}
	svc, cacheRepo, _ := newPerformanceServiceForTest(store, access)
	period := models.Period{AcademicYear: 2024, Month: ptrInt(10)}

	report, hit, err := svc.ClassReport(context.Background(), adminActor, "10A", period)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, report.Students, 2)
	assert.Equal(t, "s2", report.Students[0].StudentID)
	assert.Equal(t, 1, report.Students[0].Rank)
	assert.Equal(t, "s1", report.Students[1].StudentID)
	assert.Equal(t, []string{"s3"}, report.UnrankedStudentIDs)
	assert.Equal(t, []string{"10A"}, access.classes)
	assert.Contains(t, cacheRepo.store, "class_report:10A:2024:10")

	_, hit, err = svc.ClassReport(context.Background(), adminActor, "10A", period)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, store.classPeriods, 1)
}

func TestPerformanceServiceClassReportNotFound(t *testing.T) {
	store := &performanceStoreStub{err: fmt.Errorf("get class: %w", sql.ErrNoRows)}
	svc, _, _ := newPerformanceServiceForTest(store, &accessStub{allowClass: true})

	_, _, err := svc.LoadClassReport(context.Background(), "nope", models.Period{AcademicYear: 2024})
	require.Error(t, err)
	assert.Equal(t, "class not found", appErrors.FromError(err).Message)
}

func TestPerformanceServiceInvalidateStudent(t *testing.T) {
	svc, cacheRepo, _ := newPerformanceServiceForTest(&performanceStoreStub{}, nil)
	require.NoError(t, svc.InvalidateStudent(context.Background(), "s1"))
	assert.Equal(t, []string{"transcript:s1", "transcript:s1:*", "monthly:s1", "monthly:s1:*"}, cacheRepo.deleted)
}

func TestPerformanceServiceCurrentAcademicYear(t *testing.T) {
	svc, _, _ := newPerformanceServiceForTest(&performanceStoreStub{}, nil)
	assert.Equal(t, 2024, svc.CurrentAcademicYear())
}
