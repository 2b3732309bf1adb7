package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []Row {
	return []Row{
		{
			ID: 1, FirstName: "John", LastName: "Doe", Email: "john.doe@university.edu",
			Age: 20, GPA: 3.7, Major: "Computer Science", Phone: "+1234567890",
			EnrollmentDate: "2022-09-01", AcademicStatus: "Dean's List",
		},
		{
			ID: 2, FirstName: `Ann "Annie"`, LastName: "O'Neil", Email: "ann@university.edu",
			Age: 19, GPA: 3, Major: "History", AcademicStatus: "Good Standing",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	want := "ID,First Name,Last Name,Email,Age,GPA,Major,Phone,Enrollment Date,Academic Status\n" +
		`1,"John","Doe","john.doe@university.edu",20,3.70,"Computer Science","+1234567890","2022-09-01","Dean's List"` + "\n" +
		`2,"Ann ""Annie""","O'Neil","ann@university.edu",19,3.00,"History","","","Good Standing"` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "ID,First Name,Last Name,Email,Age,GPA,Major,Phone,Enrollment Date,Academic Status\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{
		"1", "John", "Doe", "john.doe@university.edu", "20", "3.70",
		"Computer Science", "+1234567890", "2022-09-01", "Dean's List",
	}, rows[1])
	assert.Equal(t, `Ann "Annie"`, rows[2][1])
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "pdf", sampleRows())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Zero(t, buf.Len())
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, time.October, 14, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "students_20261014_090507.csv", FileName(FormatCSV, now))
	assert.Equal(t, "students_20261014_090507.xlsx", FileName(FormatXLSX, now))
	assert.Equal(t, "students_20261014_090507.csv", FileName("", now))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(FormatCSV))
	assert.Contains(t, ContentType(FormatXLSX), "spreadsheetml")
}
