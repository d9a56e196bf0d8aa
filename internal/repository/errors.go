package repository

import "errors"

var (
	ErrCapacityExceeded    = errors.New("class is at full capacity")
	ErrDuplicateEnrollment = errors.New("student already enrolled in class")
	ErrAlreadyCancelled    = errors.New("enrollment already cancelled")
	ErrEmailTaken          = errors.New("email already registered")
	ErrStudioExists        = errors.New("admin already owns a studio")
	ErrSerialTaken         = errors.New("studio serial number collision")
)
