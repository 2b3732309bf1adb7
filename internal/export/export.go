package export

import (
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Header is the column row shared by every format.
var Header = []string{
	"ID", "First Name", "Last Name", "Email", "Age", "GPA",
	"Major", "Phone", "Enrollment Date", "Academic Status",
}

// Row is one exported student. EnrollmentDate is empty when unset.
type Row struct {
	ID             int
	FirstName      string
	LastName       string
	Email          string
	Age            int
	GPA            float64
	Major          string
	Phone          string
	EnrollmentDate string
	AcademicStatus string
}

// Write encodes rows to w in format.
func Write(w io.Writer, format string, rows []Row) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// FileName suggests students_YYYYMMDD_HHMMSS.<ext> for an export taken at now.
func FileName(format string, now time.Time) string {
	if format == "" {
		format = FormatCSV
	}
	return fmt.Sprintf("students_%s.%s", now.Format("20060102_150405"), format)
}

// ContentType is the media type of an export in format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}
