package course

import "errors"

var (
	ErrNotFound           = errors.New("course not found")
	ErrInvalidSchedule    = errors.New("end_time must be after start_time")
	ErrInvalidDay         = errors.New("day_of_week must be between 0 and 6")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrInvalidInstructor  = errors.New("instructor must be an instructor or admin of this studio")
	ErrRoomNotFound       = errors.New("room not found in this studio")
	ErrCapacityBelowSeats = errors.New("max_capacity is below the current enrollment")
	ErrInvalidCapacity    = errors.New("max_capacity must be positive")
)
