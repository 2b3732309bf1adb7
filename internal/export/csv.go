package export

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// WriteCSV writes the header and one line per row. Every text field is
// double-quoted with embedded quotes doubled; numbers are bare and GPA
// carries two decimals.
func WriteCSV(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(Header, ","))
	bw.WriteByte('\n')

	for _, r := range rows {
		bw.WriteString(strconv.Itoa(r.ID))
		bw.WriteByte(',')
		writeQuoted(bw, r.FirstName)
		bw.WriteByte(',')
		writeQuoted(bw, r.LastName)
		bw.WriteByte(',')
		writeQuoted(bw, r.Email)
		bw.WriteByte(',')
		bw.WriteString(strconv.Itoa(r.Age))
		bw.WriteByte(',')
		bw.WriteString(strconv.FormatFloat(r.GPA, 'f', 2, 64))
		bw.WriteByte(',')
		writeQuoted(bw, r.Major)
		bw.WriteByte(',')
		writeQuoted(bw, r.Phone)
		bw.WriteByte(',')
		writeQuoted(bw, r.EnrollmentDate)
		bw.WriteByte(',')
		writeQuoted(bw, r.AcademicStatus)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeQuoted(bw *bufio.Writer, s string) {
	bw.WriteByte('"')
	bw.WriteString(strings.ReplaceAll(s, `"`, `""`))
	bw.WriteByte('"')
}
