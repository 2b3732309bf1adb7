package student

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Academic status tiers, highest first.
const (
	StatusSummaCumLaude     = "Summa Cum Laude"
	StatusMagnaCumLaude     = "Magna Cum Laude"
	StatusCumLaude          = "Cum Laude"
	StatusDeansList         = "Dean's List"
	StatusGoodStanding      = "Good Standing"
	StatusAcademicProbation = "Academic Probation"
)

const honorThreshold = 3.5

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID             int     `bun:"id,pk,autoincrement" json:"id"`
	FirstName      string  `bun:"first_name,notnull" json:"firstName" validate:"required"`
	LastName       string  `bun:"last_name,notnull" json:"lastName" validate:"required"`
	Email          string  `bun:"email,unique,notnull" json:"email" validate:"required,student_email"`
	Age            int     `bun:"age,notnull" json:"age" validate:"gte=16,lte=100"`
	GPA            float64 `bun:"gpa,notnull" json:"gpa" validate:"gte=0,lte=4"`
	Major          string  `bun:"major,notnull" json:"major" validate:"required"`
	PhoneNumber    string  `bun:"phone_number" json:"phoneNumber" validate:"omitempty,student_phone"`
	EnrollmentDate Date    `bun:"enrollment_date,notnull,type:varchar(10)" json:"enrollmentDate" validate:"required,student_not_future"`
}

var _ bun.AfterScanRowHook = (*Student)(nil)

func (s *Student) SetFirstName(v string) { s.FirstName = strings.TrimSpace(v) }

func (s *Student) SetLastName(v string) { s.LastName = strings.TrimSpace(v) }

func (s *Student) SetEmail(v string) { s.Email = strings.ToLower(strings.TrimSpace(v)) }

func (s *Student) SetMajor(v string) { s.Major = strings.TrimSpace(v) }

func (s *Student) SetPhoneNumber(v string) { s.PhoneNumber = strings.TrimSpace(v) }

func (s *Student) SetAge(v int) { s.Age = v }

// SetGPA stores v rounded half-up to two decimals.
func (s *Student) SetGPA(v float64) { s.GPA = RoundGPA(v) }

func (s *Student) SetEnrollmentDate(d Date) { s.EnrollmentDate = d }

// Normalize re-applies every setter to the current field values.
func (s *Student) Normalize() {
	s.SetFirstName(s.FirstName)
	s.SetLastName(s.LastName)
	s.SetEmail(s.Email)
	s.SetMajor(s.Major)
	s.SetPhoneNumber(s.PhoneNumber)
	s.SetGPA(s.GPA)
}

// AfterScanRow normalizes rows read from the store.
func (s *Student) AfterScanRow(ctx context.Context) error {
	s.Normalize()
	return nil
}

// RoundGPA rounds half-up to two decimal places.
func RoundGPA(v float64) float64 {
	// float64() keeps the compiler from fusing the multiply and add.
	return math.Floor(float64(v*100)+0.5) / 100
}

// Equal reports whether s and o denote the same record. Identity is the id alone.
func (s *Student) Equal(o *Student) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.ID == o.ID
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

func (s *Student) IsHonorStudent() bool {
	return s.GPA >= honorThreshold
}

func (s *Student) IsValidForGraduation() bool {
	return s.GPA >= 2.0 && s.Age >= 18
}

func (s *Student) IsEligibleForScholarship() bool {
	return s.GPA >= honorThreshold && s.Age <= 25
}

func (s *Student) AcademicStatus() string {
	return AcademicStatus(s.GPA)
}

// AcademicStatus maps a GPA onto its tier. Anything below 2.0, including
// out-of-range values, is probation.
func AcademicStatus(gpa float64) string {
	switch {
	case gpa >= 3.7:
		return StatusSummaCumLaude
	case gpa >= 3.5:
		return StatusMagnaCumLaude
	case gpa >= 3.3:
		return StatusCumLaude
	case gpa >= 3.0:
		return StatusDeansList
	case gpa >= 2.0:
		return StatusGoodStanding
	default:
		return StatusAcademicProbation
	}
}

// YearsEnrolled returns the whole years elapsed between the enrollment date
// and now. It is 0 when the date is unset and negative for future dates.
func (s *Student) YearsEnrolled(now time.Time) int {
	if s.EnrollmentDate.IsZero() {
		return 0
	}
	from := s.EnrollmentDate.Time()
	to := DateOf(now).Time()
	if from.After(to) {
		return -wholeYears(to, from)
	}
	return wholeYears(from, to)
}

func wholeYears(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	return years
}

func (s *Student) String() string {
	return fmt.Sprintf("Student{id=%d, name='%s %s', email='%s', gpa=%.2f, major='%s'}",
		s.ID, s.FirstName, s.LastName, s.Email, s.GPA, s.Major)
}

// View is the read model of a student with its derived attributes.
type View struct {
	Student
	FullName                 string `json:"fullName"`
	AcademicStatus           string `json:"academicStatus"`
	IsHonorStudent           bool   `json:"isHonorStudent"`
	IsValidForGraduation     bool   `json:"isValidForGraduation"`
	IsEligibleForScholarship bool   `json:"isEligibleForScholarship"`
	YearsEnrolled            int    `json:"yearsEnrolled"`
}

// View computes the derived attributes as of now.
func (s *Student) View(now time.Time) View {
	return View{
		Student:                  *s,
		FullName:                 s.FullName(),
		AcademicStatus:           s.AcademicStatus(),
		IsHonorStudent:           s.IsHonorStudent(),
		IsValidForGraduation:     s.IsValidForGraduation(),
		IsEligibleForScholarship: s.IsEligibleForScholarship(),
		YearsEnrolled:            s.YearsEnrolled(now),
	}
}
