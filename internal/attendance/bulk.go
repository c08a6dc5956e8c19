package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// BulkAction selects what BulkToggle does.
type BulkAction string

const (
	ActionMark   BulkAction = "mark"
	ActionUnmark BulkAction = "unmark"
)

// MarkedRow describes a row created by a bulk mark.
type MarkedRow struct {
	NIM       string    `json:"nim"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// BulkResult summarises a bulk toggle. Created/Results/Skipped are set for
// marks, Deleted for unmarks.
type BulkResult struct {
	Action  BulkAction
	Created int
	Results []MarkedRow
	Skipped []string
	Deleted int64
}

// BulkToggle marks or unmarks attendance for a set of NIMs, bypassing the
// expiry, geofence and device checks of Submit.
func (s *Service) BulkToggle(ctx context.Context, sessionID string, nims []string, action BulkAction) (BulkResult, error) {
	if sessionID == "" || nims == nil || action == "" {
		return BulkResult{}, fmt.Errorf("%w: missing required fields", ErrInvalidRequest)
	}
	if len(nims) == 0 {
		return BulkResult{}, fmt.Errorf("%w: nims must be a non-empty array", ErrInvalidRequest)
	}

	switch action {
	case ActionMark:
		return s.mark(ctx, sessionID, dedupe(nims))
	case ActionUnmark:
		return s.unmark(ctx, sessionID, dedupe(nims))
	default:
		return BulkResult{}, fmt.Errorf("%w: invalid action %q", ErrInvalidRequest, action)
	}
}

func (s *Service) mark(ctx context.Context, sessionID string, nims []string) (BulkResult, error) {
	res := BulkResult{Action: ActionMark, Results: []MarkedRow{}, Skipped: []string{}}
	for _, nim := range nims {
		student, err := s.store.GetStudentByNIM(ctx, nim)
		if err != nil {
			return BulkResult{}, fmt.Errorf("get student %s: %w", nim, err)
		}
		if student == nil {
			log.Printf("bulk mark: student with NIM %s not found", nim)
			res.Skipped = append(res.Skipped, nim)
			continue
		}

		existing, err := s.store.GetAttendance(ctx, student.ID, sessionID)
		if err != nil {
			return BulkResult{}, fmt.Errorf("get attendance %s: %w", nim, err)
		}
		if existing != nil {
			continue
		}

		att := Attendance{
			ID:             uuid.NewString(),
			StudentID:      student.ID,
			SessionID:      sessionID,
			DeviceID:       BulkDeviceID,
			CreatedAt:      s.now().UTC(),
			ManualOverride: true,
		}
		if err := s.store.InsertAttendance(ctx, att); err != nil {
			if errors.Is(err, ErrDuplicateAttendance) {
				continue
			}
			return BulkResult{}, fmt.Errorf("insert attendance %s: %w", nim, err)
		}
		res.Results = append(res.Results, MarkedRow{NIM: student.NIM, Name: student.Name, CreatedAt: att.CreatedAt})
	}
	res.Created = len(res.Results)
	return res, nil
}

func (s *Service) unmark(ctx context.Context, sessionID string, nims []string) (BulkResult, error) {
	students, err := s.store.FindStudentsByNIMs(ctx, nims)
	if err != nil {
		return BulkResult{}, fmt.Errorf("find students: %w", err)
	}
	if len(students) == 0 {
		return BulkResult{Action: ActionUnmark}, nil
	}

	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	deleted, err := s.store.DeleteAttendance(ctx, sessionID, ids)
	if err != nil {
		return BulkResult{}, fmt.Errorf("delete attendance: %w", err)
	}
	return BulkResult{Action: ActionUnmark, Deleted: deleted}, nil
}

func dedupe(nims []string) []string {
	seen := make(map[string]struct{}, len(nims))
	out := make([]string, 0, len(nims))
	for _, nim := range nims {
		if _, ok := seen[nim]; ok {
			continue
		}
		seen[nim] = struct{}{}
		out = append(out, nim)
	}
	return out
}
