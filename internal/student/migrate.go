package student

import (
	"context"
	"log/slog"
	"time"

	"student-manager/internal/db"

	"github.com/uptrace/bun"
)

// Migrate creates the students table and its search indexes.
func Migrate(ctx context.Context, database *bun.DB) error {
	if err := db.RunMigrations(ctx, database, (*Student)(nil)); err != nil {
		return err
	}
	return db.CreateIndexes(ctx, database,
		db.Index{Model: (*Student)(nil), Name: "idx_student_email", Columns: []string{"email"}},
		db.Index{Model: (*Student)(nil), Name: "idx_student_name", Columns: []string{"last_name", "first_name"}},
		db.Index{Model: (*Student)(nil), Name: "idx_student_major", Columns: []string{"major"}},
	)
}

// SampleStudents is the starter data inserted into an empty store.
func SampleStudents() []Student {
	sample := func(first, last string, age int, gpa float64, major, phone string, year int) Student {
		var s Student
		s.SetFirstName(first)
		s.SetLastName(last)
		s.SetEmail(first + "." + last + "@university.edu")
		s.SetAge(age)
		s.SetGPA(gpa)
		s.SetMajor(major)
		s.SetPhoneNumber(phone)
		s.SetEnrollmentDate(NewDate(year, time.September, 1))
		return s
	}
	return []Student{
		sample("John", "Doe", 20, 3.7, "Computer Science", "+1234567890", 2022),
		sample("Jane", "Smith", 19, 3.9, "Mathematics", "+1234567891", 2023),
		sample("Mike", "Johnson", 21, 3.2, "Physics", "+1234567892", 2021),
		sample("Sarah", "Williams", 20, 3.8, "Biology", "+1234567893", 2022),
		sample("David", "Brown", 22, 3.1, "Chemistry", "+1234567894", 2020),
		sample("Emily", "Davis", 19, 4.0, "Computer Science", "+1234567895", 2023),
		sample("Robert", "Miller", 21, 2.8, "History", "+1234567896", 2021),
		sample("Lisa", "Wilson", 20, 3.6, "English", "+1234567897", 2022),
	}
}

// SeedIfEmpty inserts SampleStudents when the store holds no records.
func SeedIfEmpty(ctx context.Context, repo Repository, logger *slog.Logger) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	logger.InfoContext(ctx, "inserting sample data")
	samples := SampleStudents()
	for i := range samples {
		if _, err := repo.Insert(ctx, &samples[i]); err != nil {
			return err
		}
	}
	logger.InfoContext(ctx, "sample data inserted successfully")
	return nil
}
