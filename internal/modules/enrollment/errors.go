package enrollment

import "errors"

var (
	ErrNotFound                = errors.New("enrollment not found")
	ErrClassNotFound           = errors.New("class not found")
	ErrClassInactive           = errors.New("class is not open for enrollment")
	ErrStudentNotFound         = errors.New("student not found in this studio")
	ErrCapacityExceeded        = errors.New("class is full")
	ErrDuplicateEnrollment     = errors.New("student is already enrolled in this class")
	ErrInvalidStatusTransition = errors.New("invalid enrollment status transition")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrForbidden               = errors.New("forbidden")
	ErrPaymentSetup            = errors.New("payment could not be initialised")
)
