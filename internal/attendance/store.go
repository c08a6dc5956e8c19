package attendance

import "context"

// Lookups return (nil, nil) when the row does not exist.

// SessionStore persists sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	// ListSessions returns every session, newest first.
	ListSessions(ctx context.Context) ([]Session, error)
}

// StudentStore reads and imports the roster.
type StudentStore interface {
	GetStudentByNIM(ctx context.Context, nim string) (*Student, error)
	FindStudentsByNIMs(ctx context.Context, nims []string) ([]Student, error)
	// ListStudents returns the roster ordered by NIM ascending.
	ListStudents(ctx context.Context) ([]Student, error)
	// UpsertStudent inserts a student or renames an existing NIM. It
	// reports whether a new row was created.
	UpsertStudent(ctx context.Context, nim, name string) (bool, error)
}

// AttendanceStore persists attendance rows. Implementations must enforce
// uniqueness of (StudentID, SessionID) and return ErrDuplicateAttendance on
// a conflicting insert.
type AttendanceStore interface {
	GetAttendance(ctx context.Context, studentID, sessionID string) (*Attendance, error)
	InsertAttendance(ctx context.Context, a Attendance) error
	DeleteAttendance(ctx context.Context, sessionID string, studentIDs []string) (int64, error)
	ListSessionAttendees(ctx context.Context, sessionID string) ([]Attendee, error)
	ListStudentHistory(ctx context.Context, studentID string) ([]HistoryEntry, error)
	ListPairs(ctx context.Context) ([]Pair, error)
}

// Store is the full persistence port.
type Store interface {
	SessionStore
	StudentStore
	AttendanceStore
}
