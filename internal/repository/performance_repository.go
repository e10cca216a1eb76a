package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-performance-api/internal/models"
	"github.com/noah-isme/sma-performance-api/internal/performance"
	"github.com/noah-isme/sma-performance-api/pkg/database"
)

const (
	studentColumns     = "s.id, s.nis, s.full_name, s.gender, s.user_id, s.active, s.created_at, s.updated_at"
	scoreColumns       = "id, student_id, subject_id, class_id, score, max_score, month_name, month_number, calendar_year, remarks"
	attendanceColumns  = "student_id, class_id, date, status"
	progressionColumns = "id, student_id, from_year, to_year, from_class_id, to_class_id, promotion_type, created_at, notes"
)

// StudentSnapshotQuery selects what a student snapshot loads.
type StudentSnapshotQuery struct {
	StudentID string
	// AcademicYear restricts scores, attendance and class days; nil loads every year.
	AcademicYear *int
	// ClassmatesYear additionally loads the class-wide scores of the student's class that year.
	ClassmatesYear *int
	// ClassmatesLatest loads classmate scores for the student's most recent year.
	ClassmatesLatest bool
}

// PerformanceRepository reads the records performance computations run on.
// Every loader reads inside a single read-only snapshot transaction.
type PerformanceRepository struct {
	db *sqlx.DB
}

// NewPerformanceRepository constructs the repository.
func NewPerformanceRepository(db *sqlx.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// LoadStudentSnapshot returns the student with all of their records. A missing
// student surfaces as a wrapped sql.ErrNoRows.
func (r *PerformanceRepository) LoadStudentSnapshot(ctx context.Context, q StudentSnapshotQuery) (*models.StudentSnapshot, error) {
	snapshot := &models.StudentSnapshot{}
	err := database.Snapshot(ctx, r.db, func(tx *sqlx.Tx) error {
		query := fmt.Sprintf("SELECT %s FROM students s WHERE s.id = $1", studentColumns)
		if err := tx.GetContext(ctx, &snapshot.Student, query, q.StudentID); err != nil {
			return fmt.Errorf("get student: %w", err)
		}

		if err := tx.SelectContext(ctx, &snapshot.Enrollments,
			"SELECT student_id, class_id, academic_year FROM enrollments WHERE student_id = $1 ORDER BY academic_year, class_id",
			q.StudentID); err != nil {
			return fmt.Errorf("list enrollments: %w", err)
		}

		scoreFilter, args := scoreWindow("student_id = $1", []interface{}{q.StudentID}, q.AcademicYear, nil)
		if err := tx.SelectContext(ctx, &snapshot.Scores,
			fmt.Sprintf("SELECT %s FROM score_records WHERE %s ORDER BY calendar_year, month_number, subject_id, id", scoreColumns, scoreFilter),
			args...); err != nil {
			return fmt.Errorf("list scores: %w", err)
		}

		attendanceFilter, args := dateWindow("student_id = $1", []interface{}{q.StudentID}, q.AcademicYear, nil)
		if err := tx.SelectContext(ctx, &snapshot.Attendance,
			fmt.Sprintf("SELECT %s FROM attendance_records WHERE %s ORDER BY date, class_id", attendanceColumns, attendanceFilter),
			args...); err != nil {
			return fmt.Errorf("list attendance: %w", err)
		}

		if err := tx.SelectContext(ctx, &snapshot.Progressions,
			fmt.Sprintf("SELECT %s FROM class_progressions WHERE student_id = $1 ORDER BY created_at, from_year, id", progressionColumns),
			q.StudentID); err != nil {
			return fmt.Errorf("list progressions: %w", err)
		}

		classIDs := studentClassIDs(snapshot)
		if len(classIDs) > 0 {
			if err := tx.SelectContext(ctx, &snapshot.Classes,
				"SELECT id, name, grade_level, track_id FROM classes WHERE id = ANY($1) ORDER BY id",
				pq.Array(classIDs)); err != nil {
				return fmt.Errorf("list classes: %w", err)
			}

			dayFilter, args := dateWindow("class_id = ANY($1)", []interface{}{pq.Array(classIDs)}, q.AcademicYear, nil)
			if err := tx.SelectContext(ctx, &snapshot.ClassDays,
				fmt.Sprintf("SELECT DISTINCT class_id, date FROM attendance_records WHERE %s ORDER BY class_id, date", dayFilter),
				args...); err != nil {
				return fmt.Errorf("list class days: %w", err)
			}
		}

		subjects, err := listSubjects(ctx, tx)
		if err != nil {
			return err
		}
		snapshot.Subjects = subjects

		classmatesYear := q.ClassmatesYear
		if classmatesYear == nil && q.ClassmatesLatest {
			if year, ok := performance.LatestAcademicYear(q.StudentID, snapshot.Enrollments, snapshot.Scores, snapshot.Attendance); ok {
				classmatesYear = &year
			}
		}
		if classmatesYear != nil {
			ids := classesInYear(snapshot, *classmatesYear)
			if len(ids) > 0 {
				filter, args := scoreWindow("class_id = ANY($1)", []interface{}{pq.Array(ids)}, classmatesYear, nil)
				if err := tx.SelectContext(ctx, &snapshot.ClassmateScores,
					fmt.Sprintf("SELECT %s FROM score_records WHERE %s ORDER BY student_id, calendar_year, month_number, subject_id, id", scoreColumns, filter),
					args...); err != nil {
					return fmt.Errorf("list classmate scores: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// LoadClassSnapshot returns the class, its roster for the academic year and
// the records of the period.
func (r *PerformanceRepository) LoadClassSnapshot(ctx context.Context, classID string, period models.Period) (*models.ClassSnapshot, error) {
	snapshot := &models.ClassSnapshot{}
	err := database.Snapshot(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &snapshot.Class,
			"SELECT id, name, grade_level, track_id FROM classes WHERE id = $1", classID); err != nil {
			return fmt.Errorf("get class: %w", err)
		}

		query := fmt.Sprintf("SELECT %s FROM students s JOIN enrollments e ON e.student_id = s.id WHERE e.class_id = $1 AND e.academic_year = $2 ORDER BY s.id", studentColumns)
		if err := tx.SelectContext(ctx, &snapshot.Students, query, classID, period.AcademicYear); err != nil {
			return fmt.Errorf("list roster: %w", err)
		}

		subjects, err := listSubjects(ctx, tx)
		if err != nil {
			return err
		}
		snapshot.Subjects = subjects

		filter, args := scoreWindow("class_id = $1", []interface{}{classID}, &period.AcademicYear, period.Month)
		if err := tx.SelectContext(ctx, &snapshot.Scores,
			fmt.Sprintf("SELECT %s FROM score_records WHERE %s ORDER BY student_id, calendar_year, month_number, subject_id, id", scoreColumns, filter),
			args...); err != nil {
			return fmt.Errorf("list class scores: %w", err)
		}

		dayFilter, args := dateWindow("class_id = $1", []interface{}{classID}, &period.AcademicYear, period.Month)
		if err := tx.SelectContext(ctx, &snapshot.ClassDays,
			fmt.Sprintf("SELECT DISTINCT class_id, date FROM attendance_records WHERE %s ORDER BY class_id, date", dayFilter),
			args...); err != nil {
			return fmt.Errorf("list class days: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

type subjectRow struct {
	ID                string        `db:"id"`
	Code              string        `db:"code"`
	Name              string        `db:"name"`
	Category          string        `db:"category"`
	Coefficient       *float64      `db:"coefficient"`
	MaxScore          float64       `db:"max_score"`
	GradeLevels       pq.Int64Array `db:"grade_levels"`
	ApplicabilityKind string        `db:"applicability_kind"`
	TrackID           *string       `db:"track_id"`
}

func (row subjectRow) toModel() models.Subject {
	subject := models.Subject{
		ID:          row.ID,
		Code:        row.Code,
		Name:        row.Name,
		Category:    row.Category,
		Coefficient: row.Coefficient,
		MaxScore:    row.MaxScore,
	}
	for _, level := range row.GradeLevels {
		subject.GradeLevels = append(subject.GradeLevels, int(level))
	}
	switch models.ApplicabilityKind(row.ApplicabilityKind) {
	case models.ApplicabilityUniversal:
		subject.Applicability = models.Universal()
	case models.ApplicabilitySpecificTrack:
		track := ""
		if row.TrackID != nil {
			track = *row.TrackID
		}
		subject.Applicability = models.SpecificTrack(track)
	default:
		subject.Applicability = models.AllTracks()
	}
	return subject
}

func listSubjects(ctx context.Context, tx *sqlx.Tx) ([]models.Subject, error) {
	var rows []subjectRow
	if err := tx.SelectContext(ctx, &rows,
		"SELECT id, code, name, category, coefficient, max_score, grade_levels, applicability_kind, track_id FROM subjects ORDER BY code, id"); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	subjects := make([]models.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.toModel())
	}
	return subjects, nil
}

// scoreWindow appends the academic-year (and month) predicate on calendar_year/month_number.
func scoreWindow(base string, args []interface{}, academicYear, month *int) (string, []interface{}) {
	if academicYear == nil {
		return base, args
	}
	var sb strings.Builder
	sb.WriteString(base)
	if month != nil {
		args = append(args, performance.CalendarYearOf(*academicYear, *month), *month)
		sb.WriteString(fmt.Sprintf(" AND calendar_year = $%d AND month_number = $%d", len(args)-1, len(args)))
		return sb.String(), args
	}
	args = append(args, *academicYear)
	n := len(args)
	sb.WriteString(fmt.Sprintf(" AND ((calendar_year = $%d AND month_number >= 10) OR (calendar_year = $%d + 1 AND month_number <= 9))", n, n))
	return sb.String(), args
}

// dateWindow appends a half-open [start, end) range on the date column.
func dateWindow(base string, args []interface{}, academicYear, month *int) (string, []interface{}) {
	if academicYear == nil {
		return base, args
	}
	start := time.Date(*academicYear, time.October, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	if month != nil {
		start = time.Date(performance.CalendarYearOf(*academicYear, *month), time.Month(*month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}
	args = append(args, start, end)
	return fmt.Sprintf("%s AND date >= $%d AND date < $%d", base, len(args)-1, len(args)), args
}

func studentClassIDs(snapshot *models.StudentSnapshot) []string {
	set := make(map[string]struct{})
	for _, e := range snapshot.Enrollments {
		set[e.ClassID] = struct{}{}
	}
	for _, s := range snapshot.Scores {
		set[s.ClassID] = struct{}{}
	}
	for _, a := range snapshot.Attendance {
		set[a.ClassID] = struct{}{}
	}
	for _, p := range snapshot.Progressions {
		set[p.FromClassID] = struct{}{}
		set[p.ToClassID] = struct{}{}
	}
	return sortedKeys(set)
}

// classesInYear returns the enrolled classes of the year, or the classes of
// the year's score records when the student has no enrollment.
func classesInYear(snapshot *models.StudentSnapshot, year int) []string {
	set := make(map[string]struct{})
	for _, e := range snapshot.Enrollments {
		if e.AcademicYear == year {
			set[e.ClassID] = struct{}{}
		}
	}
	if len(set) == 0 {
		for _, s := range snapshot.Scores {
			if performance.InAcademicYear(year, s.CalendarYear, s.MonthNumber) {
				set[s.ClassID] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
