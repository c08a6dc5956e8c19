package attendance

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"geoattend/internal/audit"
)

const pgUniqueViolation = "23505"

// Repository persists sessions, students and attendance in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateSession writes a new session.
func (r *Repository) CreateSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, latitude, longitude, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.Title, s.Latitude, s.Longitude, s.CreatedAt, s.ExpiresAt)
	return err
}

// GetSession returns a session by id.
func (r *Repository) GetSession(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, latitude, longitude, created_at, expires_at
		FROM sessions WHERE id = $1
	`, id)
	var s Session
	if err := row.Scan(&s.ID, &s.Title, &s.Latitude, &s.Longitude, &s.CreatedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListSessions returns all sessions, newest first.
func (r *Repository) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, latitude, longitude, created_at, expires_at
		FROM sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Title, &s.Latitude, &s.Longitude, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetStudentByNIM returns a student by NIM.
func (r *Repository) GetStudentByNIM(ctx context.Context, nim string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, nim, name FROM students WHERE nim = $1`, nim)
	var st Student
	if err := row.Scan(&st.ID, &st.NIM, &st.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// FindStudentsByNIMs resolves a batch of NIMs; unknown NIMs are absent from
// the result.
func (r *Repository) FindStudentsByNIMs(ctx context.Context, nims []string) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, nim, name FROM students WHERE nim = ANY($1)`, nims)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStudents(rows)
}

// ListStudents returns the roster by NIM.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, nim, name FROM students ORDER BY nim`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStudents(rows)
}

func scanStudents(rows *sql.Rows) ([]Student, error) {
	var students []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.NIM, &st.Name); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// UpsertStudent creates a student or updates the name of an existing NIM.
func (r *Repository) UpsertStudent(ctx context.Context, nim, name string) (bool, error) {
	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, nim, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (nim) DO UPDATE SET name = EXCLUDED.name
		RETURNING (xmax = 0)
	`, uuid.NewString(), nim, name).Scan(&inserted)
	return inserted, err
}

// GetAttendance returns the attendance row for a student in a session.
func (r *Repository) GetAttendance(ctx context.Context, studentID, sessionID string) (*Attendance, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, session_id, device_id, created_at, manual_override
		FROM attendance
		WHERE student_id = $1 AND session_id = $2
	`, studentID, sessionID)
	var a Attendance
	if err := row.Scan(&a.ID, &a.StudentID, &a.SessionID, &a.DeviceID, &a.CreatedAt, &a.ManualOverride); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// InsertAttendance writes a new row. The (session_id, student_id) unique
// constraint surfaces as ErrDuplicateAttendance.
func (r *Repository) InsertAttendance(ctx context.Context, a Attendance) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (id, session_id, student_id, device_id, created_at, manual_override)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.SessionID, a.StudentID, a.DeviceID, a.CreatedAt, a.ManualOverride)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateAttendance
	}
	return err
}

// DeleteAttendance removes the session's rows for the given students
// regardless of device or override flag.
func (r *Repository) DeleteAttendance(ctx context.Context, sessionID string, studentIDs []string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM attendance
		WHERE session_id = $1 AND student_id = ANY($2)
	`, sessionID, studentIDs)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListSessionAttendees returns the students who attended a session.
func (r *Repository) ListSessionAttendees(ctx context.Context, sessionID string) ([]Attendee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.nim, s.name, a.created_at
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		WHERE a.session_id = $1
		ORDER BY a.created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendees []Attendee
	for rows.Next() {
		var at Attendee
		if err := rows.Scan(&at.NIM, &at.Name, &at.CreatedAt); err != nil {
			return nil, err
		}
		attendees = append(attendees, at)
	}
	return attendees, rows.Err()
}

// ListStudentHistory returns the sessions a student attended.
func (r *Repository) ListStudentHistory(ctx context.Context, studentID string) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.session_id, se.title, a.created_at
		FROM attendance a
		JOIN sessions se ON se.id = a.session_id
		WHERE a.student_id = $1
		ORDER BY a.created_at
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.SessionID, &h.Title, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ListPairs returns the (student, session) key of every attendance row.
func (r *Repository) ListPairs(ctx context.Context) ([]Pair, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT student_id, session_id FROM attendance`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.StudentID, &p.SessionID); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// RecordCheckin stores a check-in audit event. Replays of the same event id
// are ignored.
func (r *Repository) RecordCheckin(ctx context.Context, evt audit.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO checkin_audit (id, session_id, nim, device_id, latitude, longitude, outcome, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, evt.ID, evt.SessionID, evt.NIM, evt.DeviceID, evt.Latitude, evt.Longitude, evt.Outcome, evt.At)
	return err
}
