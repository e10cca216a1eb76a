package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-performance-api/internal/models"
	"github.com/noah-isme/sma-performance-api/internal/service"
	appErrors "github.com/noah-isme/sma-performance-api/pkg/errors"
	"github.com/noah-isme/sma-performance-api/pkg/response"
)

type performanceServiceMock struct {
	transcript *models.TranscriptData
	slots      []models.MonthlySlot
	attendance *models.AttendanceSummary
	report     *models.ClassReportSummary
	cacheHit   bool
	err        error

	lastID     string
	lastYear   int
	lastPeriod models.Period
	lastActor  service.Actor
}

func (m *performanceServiceMock) Transcript(ctx context.Context, actor service.Actor, studentID string) (*models.TranscriptData, bool, error) {
	m.lastActor, m.lastID = actor, studentID
	return m.transcript, m.cacheHit, m.err
}

func (m *performanceServiceMock) Monthly(ctx context.Context, actor service.Actor, studentID string, academicYear int) ([]models.MonthlySlot, bool, error) {
	m.lastActor, m.lastID, m.lastYear = actor, studentID, academicYear
	return m.slots, m.cacheHit, m.err
}

func (m *performanceServiceMock) Attendance(ctx context.Context, actor service.Actor, studentID string, period models.Period) (*models.AttendanceSummary, error) {
	m.lastActor, m.lastID, m.lastPeriod = actor, studentID, period
	return m.attendance, m.err
}

func (m *performanceServiceMock) ClassReport(ctx context.Context, actor service.Actor, classID string, period models.Period) (*models.ClassReportSummary, bool, error) {
	m.lastActor, m.lastID, m.lastPeriod = actor, classID, period
	return m.report, m.cacheHit, m.err
}

func (m *performanceServiceMock) InvalidateStudent(ctx context.Context, studentID string) error {
	m.lastID = studentID
	return m.err
}

func (m *performanceServiceMock) CurrentAcademicYear() int { return 2024 }

func decodeEnvelope(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestPerformanceHandlerTranscript(t *testing.T) {
	mock := &performanceServiceMock{
		transcript: &models.TranscriptData{Student: models.TranscriptStudent{ID: "s1", FullName: "Dara"}},
		cacheHit:   true,
	}
	h := NewPerformanceHandler(mock, nil)
	c, w := newGinContext(http.MethodGet, "/students/s1/transcript", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	withUser(c, "parent-1", models.RoleParent)

	h.Transcript(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", mock.lastID)
	assert.Equal(t, service.Actor{UserID: "parent-1", Role: models.RoleParent}, mock.lastActor)

	envelope := decodeEnvelope(t, w.Body.Bytes())
	meta := envelope["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "Dara", data["student"].(map[string]interface{})["fullName"])
}

func TestPerformanceHandlerMonthlyDefaultsYear(t *testing.T) {
	mock := &performanceServiceMock{slots: make([]models.MonthlySlot, 12)}
	h := NewPerformanceHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/students/s1/monthly", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	withUser(c, "admin", models.RoleAdmin)
	h.Monthly(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2024, mock.lastYear)

	c, w = newGinContext(http.MethodGet, "/students/s1/monthly?academic_year=2022", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	withUser(c, "admin", models.RoleAdmin)
	h.Monthly(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2022, mock.lastYear)
}

func TestPerformanceHandlerRejectsBadPeriod(t *testing.T) {
	h := NewPerformanceHandler(&performanceServiceMock{}, nil)
	for _, query := range []string{"?month=13", "?month=abc", "?academic_year=20"} {
		c, w := newGinContext(http.MethodGet, "/classes/10A/report"+query, nil)
		c.Params = gin.Params{{Key: "id", Value: "10A"}}
		withUser(c, "admin", models.RoleAdmin)
		h.ClassReport(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestPerformanceHandlerAttendancePeriod(t *testing.T) {
	rate := 90.0
	mock := &performanceServiceMock{attendance: &models.AttendanceSummary{SchoolDays: 10, AttendanceRate: &rate}}
	h := NewPerformanceHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/students/s1/attendance?academic_year=2024&month=10", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	withUser(c, "user-s1", models.RoleStudent)
	h.Attendance(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2024, mock.lastPeriod.AcademicYear)
	require.NotNil(t, mock.lastPeriod.Month)
	assert.Equal(t, 10, *mock.lastPeriod.Month)
	assert.Contains(t, w.Body.String(), `"attendanceRate":90`)
}

func TestPerformanceHandlerClassReportErrors(t *testing.T) {
	mock := &performanceServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "class not found")}
	h := NewPerformanceHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/classes/zz/report", nil)
	c.Params = gin.Params{{Key: "id", Value: "zz"}}
	withUser(c, "admin", models.RoleAdmin)
	h.ClassReport(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "class not found", envelope.Error.Message)
}

func TestPerformanceHandlerRequiresClaims(t *testing.T) {
	mock := &performanceServiceMock{}
	h := NewPerformanceHandler(mock, nil)
	c, w := newGinContext(http.MethodGet, "/students/s1/transcript", nil)
	h.Transcript(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, mock.lastID)
}

func TestPerformanceHandlerInvalidateCache(t *testing.T) {
	mock := &performanceServiceMock{}
	h := NewPerformanceHandler(mock, nil)
	c, w := newGinContext(http.MethodDelete, "/students/s9/cache", nil)
	c.Params = gin.Params{{Key: "id", Value: "s9"}}

	h.InvalidateCache(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s9", mock.lastID)

	mock.err = appErrors.ErrInternal
	c, w = newGinContext(http.MethodDelete, "/students/s9/cache", nil)
	h.InvalidateCache(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
