package attendance

import (
	"bufio"
	"context"
	"io"
	"sort"
	"strings"
	"time"
)

const (
	cellPresent = "Hadir"
	cellAbsent  = "Tidak Hadir"
	utf8BOM     = "\ufeff"
)

// Matrix is a student x session presence table.
type Matrix struct {
	Sessions []Session
	Rows     []MatrixRow
}

// MatrixRow is one student's presence across Matrix.Sessions.
type MatrixRow struct {
	Student Student
	Present []bool
}

// Export builds the attendance matrix: students by NIM ascending, sessions
// by creation time ascending.
func (s *Service) Export(ctx context.Context) (Matrix, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return Matrix{}, err
	}
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return Matrix{}, err
	}
	pairs, err := s.store.ListPairs(ctx)
	if err != nil {
		return Matrix{}, err
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].NIM < students[j].NIM
	})

	present := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		present[p.key()] = struct{}{}
	}

	m := Matrix{Sessions: sessions, Rows: make([]MatrixRow, 0, len(students))}
	for _, st := range students {
		row := MatrixRow{Student: st, Present: make([]bool, len(sessions))}
		for i, sess := range sessions {
			_, row.Present[i] = present[Pair{StudentID: st.ID, SessionID: sess.ID}.key()]
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

// WriteCSV writes the matrix as BOM-prefixed CSV with every field quoted.
func (m Matrix) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return err
	}

	header := make([]string, 0, len(m.Sessions)+2)
	header = append(header, "NIM", "Nama")
	for _, sess := range m.Sessions {
		header = append(header, sess.Title)
	}
	if err := writeQuoted(bw, header); err != nil {
		return err
	}

	for _, row := range m.Rows {
		record := make([]string, 0, len(row.Present)+2)
		record = append(record, row.Student.NIM, row.Student.Name)
		for _, p := range row.Present {
			if p {
				record = append(record, cellPresent)
			} else {
				record = append(record, cellAbsent)
			}
		}
		if err := writeQuoted(bw, record); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeQuoted writes one CSV line; encoding/csv only quotes when needed.
func writeQuoted(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// ExportFilename returns the attachment name for an export made at t.
func ExportFilename(t time.Time) string {
	return "absensi-" + t.UTC().Format("2006-01-02") + ".csv"
}
