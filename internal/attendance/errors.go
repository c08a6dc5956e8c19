package attendance

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("this session has expired")
	ErrStudentNotFound = errors.New("student not found")
	ErrTooFar          = errors.New("you are too far from the session location")
	ErrDeviceMismatch  = errors.New("attendance already submitted from a different device")
	ErrInvalidRequest  = errors.New("invalid request")

	// ErrDuplicateAttendance is returned by a Store when an attendance row
	// for the same (student, session) pair already exists.
	ErrDuplicateAttendance = errors.New("attendance already exists")
)
