package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-performance-api/internal/dto"
	"github.com/noah-isme/sma-performance-api/internal/models"
	"github.com/noah-isme/sma-performance-api/internal/service"
	appErrors "github.com/noah-isme/sma-performance-api/pkg/errors"
	"github.com/noah-isme/sma-performance-api/pkg/response"
)

type performanceService interface {
	Transcript(ctx context.Context, actor service.Actor, studentID string) (*models.TranscriptData, bool, error)
	Monthly(ctx context.Context, actor service.Actor, studentID string, academicYear int) ([]models.MonthlySlot, bool, error)
	Attendance(ctx context.Context, actor service.Actor, studentID string, period models.Period) (*models.AttendanceSummary, error)
	ClassReport(ctx context.Context, actor service.Actor, classID string, period models.Period) (*models.ClassReportSummary, bool, error)
	InvalidateStudent(ctx context.Context, studentID string) error
	CurrentAcademicYear() int
}

// PerformanceHandler serves transcripts, monthly timelines, attendance and class reports.
type PerformanceHandler struct {
	performance performanceService
	validator   *validator.Validate
}

// NewPerformanceHandler constructs the handler.
func NewPerformanceHandler(performance performanceService, validate *validator.Validate) *PerformanceHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &PerformanceHandler{performance: performance, validator: validate}
}

// Transcript godoc
// @Summary Student transcript
// @Description Multi-year transcript with cumulative average, progression history and the latest monthly timeline.
// @Tags Performance
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /performance/students/{id}/transcript [get]
func (h *PerformanceHandler) Transcript(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	transcript, cacheHit, err := h.performance.Transcript(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := respondWithMeta(c, cacheHit)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, transcript, meta)
}

// Monthly godoc
// @Summary Monthly performance timeline
// @Description Twelve slots from October to September for one academic year.
// @Tags Performance
// @Produce json
// @Param id path string true "Student ID"
// @Param academic_year query int false "Academic year (defaults to the current one)"
// @Success 200 {object} response.Envelope
// @Router /performance/students/{id}/monthly [get]
func (h *PerformanceHandler) Monthly(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query, err := h.bindPeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	period := query.Period(h.performance.CurrentAcademicYear())
	slots, cacheHit, err := h.performance.Monthly(c.Request.Context(), actor, c.Param("id"), period.AcademicYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, respondWithMeta(c, cacheHit))
}

// Attendance godoc
// @Summary Attendance summary
// @Tags Performance
// @Produce json
// @Param id path string true "Student ID"
// @Param academic_year query int false "Academic year"
// @Param month query int false "Calendar month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /performance/students/{id}/attendance [get]
func (h *PerformanceHandler) Attendance(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query, err := h.bindPeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.performance.Attendance(c.Request.Context(), actor, c.Param("id"), query.Period(h.performance.CurrentAcademicYear()))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, respondWithMeta(c, false))
}

// ClassReport godoc
// @Summary Class ranking report
// @Tags Performance
// @Produce json
// @Param id path string true "Class ID"
// @Param academic_year query int false "Academic year"
// @Param month query int false "Calendar month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /performance/classes/{id}/report [get]
func (h *PerformanceHandler) ClassReport(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query, err := h.bindPeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, cacheHit, err := h.performance.ClassReport(c.Request.Context(), actor, c.Param("id"), query.Period(h.performance.CurrentAcademicYear()))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, respondWithMeta(c, cacheHit))
}

// InvalidateCache godoc
// @Summary Drop cached results of a student
// @Tags Performance
// @Param id path string true "Student ID"
// @Success 204
// @Router /performance/students/{id}/cache [delete]
func (h *PerformanceHandler) InvalidateCache(c *gin.Context) {
	if err := h.performance.InvalidateStudent(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PerformanceHandler) bindPeriod(c *gin.Context) (dto.PeriodQuery, error) {
	var query dto.PeriodQuery
	for name, target := range map[string]**int{"academic_year": &query.AcademicYear, "month": &query.Month} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter")
		}
		*target = &value
	}
	if err := h.validator.Struct(query); err != nil {
		return query, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period")
	}
	return query, nil
}
