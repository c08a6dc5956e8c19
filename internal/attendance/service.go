package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"geoattend/internal/geo"
)

// Outcome is the result of an accepted submission.
type Outcome string

const (
	OutcomeCreated         Outcome = "created"
	OutcomeAlreadyAttended Outcome = "already_attended"
)

// Submission is a self-service check-in attempt.
type Submission struct {
	SessionID string
	NIM       string
	Latitude  float64
	Longitude float64
	DeviceID  string
}

// Result describes an accepted submission.
type Result struct {
	Outcome    Outcome
	Attendance Attendance
	Distance   float64
}

// Service coordinates sessions, check-in admission and roster overrides.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit runs the admission gates in order: session exists, session not
// expired, student exists, inside the geofence, device matches any prior
// check-in. At most one attendance row is inserted.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	now := s.now().UTC()

	session, err := s.store.GetSession(ctx, sub.SessionID)
	if err != nil {
		return Result{}, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return Result{}, ErrSessionNotFound
	}
	if session.Expired(now) {
		return Result{}, ErrSessionExpired
	}

	student, err := s.store.GetStudentByNIM(ctx, sub.NIM)
	if err != nil {
		return Result{}, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return Result{}, ErrStudentNotFound
	}

	distance := geo.Distance(sub.Latitude, sub.Longitude, session.Latitude, session.Longitude)
	if !geo.WithinGeofence(distance) {
		return Result{}, ErrTooFar
	}

	existing, err := s.store.GetAttendance(ctx, student.ID, session.ID)
	if err != nil {
		return Result{}, fmt.Errorf("get attendance: %w", err)
	}
	if existing != nil {
		return resolveExisting(*existing, sub.DeviceID, distance)
	}

	att := Attendance{
		ID:        uuid.NewString(),
		StudentID: student.ID,
		SessionID: session.ID,
		DeviceID:  sub.DeviceID,
		CreatedAt: now,
	}
	if insertErr := s.store.InsertAttendance(ctx, att); insertErr != nil {
		if !errors.Is(insertErr, ErrDuplicateAttendance) {
			return Result{}, fmt.Errorf("insert attendance: %w", insertErr)
		}
		// A concurrent submission won the insert; judge against its row.
		winner, err := s.store.GetAttendance(ctx, student.ID, session.ID)
		if err != nil {
			return Result{}, fmt.Errorf("get attendance: %w", err)
		}
		if winner == nil {
			return Result{}, fmt.Errorf("insert attendance: %w", insertErr)
		}
		return resolveExisting(*winner, sub.DeviceID, distance)
	}
	return Result{Outcome: OutcomeCreated, Attendance: att, Distance: distance}, nil
}

func resolveExisting(existing Attendance, deviceID string, distance float64) (Result, error) {
	if existing.DeviceID != deviceID {
		return Result{}, ErrDeviceMismatch
	}
	return Result{Outcome: OutcomeAlreadyAttended, Attendance: existing, Distance: distance}, nil
}

// CreateSession opens a session at the given location, valid for SessionTTL.
func (s *Service) CreateSession(ctx context.Context, title string, lat, lon float64) (Session, error) {
	now := s.now().UTC()
	session := Session{
		ID:        uuid.NewString(),
		Title:     title,
		Latitude:  lat,
		Longitude: lon,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// GetSession returns a session or ErrSessionNotFound.
func (s *Service) GetSession(ctx context.Context, id string) (Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if session == nil {
		return Session{}, ErrSessionNotFound
	}
	return *session, nil
}

// ListSessions returns all sessions newest first, expired ones included.
func (s *Service) ListSessions(ctx context.Context) ([]Session, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}

// SessionAttendees lists who attended a session.
func (s *Service) SessionAttendees(ctx context.Context, sessionID string) ([]Attendee, error) {
	attendees, err := s.store.ListSessionAttendees(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if attendees == nil {
		attendees = []Attendee{}
	}
	return attendees, nil
}

// StudentHistory lists the sessions a student attended.
func (s *Service) StudentHistory(ctx context.Context, nim string) ([]HistoryEntry, error) {
	student, err := s.store.GetStudentByNIM(ctx, nim)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	history, err := s.store.ListStudentHistory(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []HistoryEntry{}
	}
	return history, nil
}

// Roster returns every student ordered by NIM.
func (s *Service) Roster(ctx context.Context) ([]Student, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []Student{}
	}
	return students, nil
}
