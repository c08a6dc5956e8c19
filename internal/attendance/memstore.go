package attendance

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"geoattend/internal/audit"
)

// MemoryStore is a mutex-guarded in-process Store for development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]Session
	students   map[string]Student // by NIM
	attendance map[string]Attendance
	audit      []audit.Event
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]Session),
		students:   make(map[string]Student),
		attendance: make(map[string]Attendance),
	}
}

func (m *MemoryStore) CreateSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListSessions(_ context.Context) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (m *MemoryStore) GetStudentByNIM(_ context.Context, nim string) (*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.students[nim]; ok {
		return &st, nil
	}
	return nil, nil
}

func (m *MemoryStore) FindStudentsByNIMs(_ context.Context, nims []string) ([]Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var students []Student
	for _, nim := range nims {
		if st, ok := m.students[nim]; ok {
			students = append(students, st)
		}
	}
	return students, nil
}

func (m *MemoryStore) ListStudents(_ context.Context) ([]Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	students := make([]Student, 0, len(m.students))
	for _, st := range m.students {
		students = append(students, st)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].NIM < students[j].NIM })
	return students, nil
}

func (m *MemoryStore) UpsertStudent(_ context.Context, nim, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.students[nim]; ok {
		st.Name = name
		m.students[nim] = st
		return false, nil
	}
	m.students[nim] = Student{ID: uuid.NewString(), NIM: nim, Name: name}
	return true, nil
}

func (m *MemoryStore) GetAttendance(_ context.Context, studentID, sessionID string) (*Attendance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.attendance[Pair{StudentID: studentID, SessionID: sessionID}.key()]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *MemoryStore) InsertAttendance(_ context.Context, a Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := Pair{StudentID: a.StudentID, SessionID: a.SessionID}.key()
	if _, ok := m.attendance[k]; ok {
		return ErrDuplicateAttendance
	}
	m.attendance[k] = a
	return nil
}

func (m *MemoryStore) DeleteAttendance(_ context.Context, sessionID string, studentIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range studentIDs {
		k := Pair{StudentID: id, SessionID: sessionID}.key()
		if _, ok := m.attendance[k]; ok {
			delete(m.attendance, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ListSessionAttendees(_ context.Context, sessionID string) ([]Attendee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byID := make(map[string]Student, len(m.students))
	for _, st := range m.students {
		byID[st.ID] = st
	}
	var attendees []Attendee
	for _, a := range m.attendance {
		if a.SessionID != sessionID {
			continue
		}
		st, ok := byID[a.StudentID]
		if !ok {
			continue
		}
		attendees = append(attendees, Attendee{NIM: st.NIM, Name: st.Name, CreatedAt: a.CreatedAt})
	}
	sort.Slice(attendees, func(i, j int) bool { return attendees[i].CreatedAt.Before(attendees[j].CreatedAt) })
	return attendees, nil
}

func (m *MemoryStore) ListStudentHistory(_ context.Context, studentID string) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var history []HistoryEntry
	for _, a := range m.attendance {
		if a.StudentID != studentID {
			continue
		}
		s, ok := m.sessions[a.SessionID]
		if !ok {
			continue
		}
		history = append(history, HistoryEntry{SessionID: s.ID, Title: s.Title, CreatedAt: a.CreatedAt})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].CreatedAt.Before(history[j].CreatedAt) })
	return history, nil
}

func (m *MemoryStore) ListPairs(_ context.Context) ([]Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pairs := make([]Pair, 0, len(m.attendance))
	for _, a := range m.attendance {
		pairs = append(pairs, Pair{StudentID: a.StudentID, SessionID: a.SessionID})
	}
	return pairs, nil
}

// RecordCheckin keeps audit events in memory.
func (m *MemoryStore) RecordCheckin(_ context.Context, evt audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, evt)
	return nil
}

// AuditEvents returns a copy of the recorded audit events.
func (m *MemoryStore) AuditEvents() []audit.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]audit.Event(nil), m.audit...)
}
