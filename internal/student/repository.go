package student

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"student-manager/internal/metrics"

	"github.com/uptrace/bun"
)

const tableName = "students"

// Repository is the data access contract of the student store.
type Repository interface {
	List(ctx context.Context) ([]Student, error)
	Insert(ctx context.Context, student *Student) (int, error)
	Update(ctx context.Context, student *Student) error
	Remove(ctx context.Context, id int) error
	EmailExists(ctx context.Context, email string, excludeID int) (bool, error)
	AggregateStatistics(ctx context.Context) (Statistics, error)
	Search(ctx context.Context, term string) ([]Student, error)
	ListByMajor(ctx context.Context, major string) ([]Student, error)
	ListHonor(ctx context.Context) ([]Student, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) record(ctx context.Context, op string, start time.Time, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	r.metrics.RecordQuery(ctx, op, tableName, time.Since(start), err)
}

func (r *repository) List(ctx context.Context) ([]Student, error) {
	start := time.Now()
	students := []Student{}
	err := r.db.NewSelect().
		Model(&students).
		Order("s.last_name ASC", "s.first_name ASC").
		Scan(ctx)

	r.record(ctx, "select", start, err)

	return students, err
}

func (r *repository) Insert(ctx context.Context, student *Student) (int, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(student).Returning("id").Exec(ctx)

	r.record(ctx, "insert", start, err)

	if err != nil {
		return 0, err
	}
	return student.ID, nil
}

func (r *repository) Update(ctx context.Context, student *Student) error {
	start := time.Now()
	result, err := r.db.NewUpdate().Model(student).WherePK().Exec(ctx)

	r.record(ctx, "update", start, err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (r *repository) Remove(ctx context.Context, id int) error {
	start := time.Now()
	student := &Student{ID: id}
	result, err := r.db.NewDelete().Model(student).WherePK().Exec(ctx)

	r.record(ctx, "delete", start, err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (r *repository) EmailExists(ctx context.Context, email string, excludeID int) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*Student)(nil)).
		Where("s.email = ?", strings.ToLower(email)).
		Where("s.id != ?", excludeID).
		Exists(ctx)

	r.record(ctx, "select", start, err)

	return exists, err
}

type aggregateRow struct {
	TotalCount int             `bun:"total_count"`
	AvgGPA     sql.NullFloat64 `bun:"avg_gpa"`
	MinGPA     sql.NullFloat64 `bun:"min_gpa"`
	MaxGPA     sql.NullFloat64 `bun:"max_gpa"`
	HonorCount int             `bun:"honor_count"`
	AvgAge     sql.NullFloat64 `bun:"avg_age"`
}

func (r *repository) AggregateStatistics(ctx context.Context) (Statistics, error) {
	start := time.Now()
	var row aggregateRow
	err := r.db.NewSelect().
		Model((*Student)(nil)).
		ColumnExpr("COUNT(*) AS total_count").
		ColumnExpr("AVG(s.gpa) AS avg_gpa").
		ColumnExpr("MIN(s.gpa) AS min_gpa").
		ColumnExpr("MAX(s.gpa) AS max_gpa").
		ColumnExpr("COUNT(CASE WHEN s.gpa >= ? THEN 1 END) AS honor_count", honorThreshold).
		ColumnExpr("AVG(s.age) AS avg_age").
		Scan(ctx, &row)

	r.record(ctx, "select", start, err)

	if err != nil {
		return Statistics{}, err
	}
	return Statistics{
		Count:      row.TotalCount,
		MeanGPA:    row.AvgGPA.Float64,
		MinGPA:     row.MinGPA.Float64,
		MaxGPA:     row.MaxGPA.Float64,
		HonorCount: row.HonorCount,
		MeanAge:    row.AvgAge.Float64,
	}, nil
}

func (r *repository) Search(ctx context.Context, term string) ([]Student, error) {
	start := time.Now()
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	students := []Student{}
	err := r.db.NewSelect().
		Model(&students).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("LOWER(s.first_name) LIKE ?", pattern).
				WhereOr("LOWER(s.last_name) LIKE ?", pattern).
				WhereOr("LOWER(s.email) LIKE ?", pattern).
				WhereOr("LOWER(s.major) LIKE ?", pattern)
		}).
		Order("s.last_name ASC", "s.first_name ASC").
		Scan(ctx)

	r.record(ctx, "select", start, err)

	return students, err
}

func (r *repository) ListByMajor(ctx context.Context, major string) ([]Student, error) {
	start := time.Now()
	students := []Student{}
	err := r.db.NewSelect().
		Model(&students).
		Where("s.major = ?", strings.TrimSpace(major)).
		Order("s.gpa DESC", "s.last_name ASC", "s.first_name ASC").
		Scan(ctx)

	r.record(ctx, "select", start, err)

	return students, err
}

func (r *repository) ListHonor(ctx context.Context) ([]Student, error) {
	start := time.Now()
	students := []Student{}
	err := r.db.NewSelect().
		Model(&students).
		Where("s.gpa >= ?", honorThreshold).
		Order("s.gpa DESC", "s.last_name ASC", "s.first_name ASC").
		Scan(ctx)

	r.record(ctx, "select", start, err)

	return students, err
}

func (r *repository) Count(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := r.db.NewSelect().Model((*Student)(nil)).Count(ctx)

	r.record(ctx, "count", start, err)

	return count, err
}
