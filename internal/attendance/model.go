package attendance

import "time"

// SessionTTL is how long a session accepts self-service check-ins.
const SessionTTL = 2 * time.Hour

// BulkDeviceID is stored as the device of rows created by the bulk toggler.
const BulkDeviceID = "manual-bulk"

// Student is a roster entry. NIM is the human-facing identifier; ID is the
// storage key.
type Student struct {
	ID   string `json:"-"`
	NIM  string `json:"nim"`
	Name string `json:"name"`
}

// Session is a time-boxed check-in window tied to a location.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session no longer accepts check-ins at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Attendance records one student's presence in one session.
type Attendance struct {
	ID             string
	StudentID      string
	SessionID      string
	DeviceID       string
	CreatedAt      time.Time
	ManualOverride bool
}

// Attendee is an attendance row joined with its student.
type Attendee struct {
	NIM       string    `json:"nim"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryEntry is one session a student attended.
type HistoryEntry struct {
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Pair identifies an attendance row by its owning references.
type Pair struct {
	StudentID string
	SessionID string
}

func (p Pair) key() string {
	return p.StudentID + "-" + p.SessionID
}
