package attendance

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ImportResult counts what a roster import changed.
type ImportResult struct {
	Inserted int
	Updated  int
}

// ParseRoster reads nim,name rows. A first row whose first cell is "nim"
// (any case) is treated as a header. Blank NIMs are rejected.
func ParseRoster(r io.Reader) ([]Student, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []Student
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("roster line %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimPrefix(rec[0], "\ufeff"), "nim") {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("roster line %d: want nim,name", line)
		}
		nim := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))
		if nim == "" {
			return nil, fmt.Errorf("roster line %d: empty nim", line)
		}
		out = append(out, Student{NIM: nim, Name: strings.TrimSpace(rec[1])})
	}
	return out, nil
}

// ImportRoster upserts students by NIM, renaming existing ones.
func (s *Service) ImportRoster(ctx context.Context, students []Student) (ImportResult, error) {
	var res ImportResult
	for _, st := range students {
		inserted, err := s.store.UpsertStudent(ctx, st.NIM, st.Name)
		if err != nil {
			return res, fmt.Errorf("upsert %s: %w", st.NIM, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	return res, nil
}
