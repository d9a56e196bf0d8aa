package attendance

import "errors"

var (
	ErrClassNotFound = errors.New("class not found")
	ErrForbidden     = errors.New("only an admin or the class instructor can mark attendance")
	ErrInvalidDate   = errors.New("session_date must be YYYY-MM-DD")
	ErrInvalidStatus = errors.New("invalid attendance status")
	ErrNotEnrolled   = errors.New("student is not enrolled in this class")
	ErrNoRecords     = errors.New("at least one record is required")
)
