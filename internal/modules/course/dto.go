package course

import "github.com/shopspring/decimal"

type CreateCourseRequest struct {
	Name         string          `json:"name" binding:"required,min=1,max=255"`
	Description  string          `json:"description"`
	InstructorID int64           `json:"instructor_id" binding:"required,gt=0"`
	RoomID       *int64          `json:"room_id,omitempty" binding:"omitempty,gt=0"`
	DayOfWeek    *int            `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime    string          `json:"start_time" binding:"required,clock"`
	EndTime      string          `json:"end_time" binding:"required,clock"`
	MaxCapacity  int             `json:"max_capacity" binding:"required,gt=0"`
	PriceILS     decimal.Decimal `json:"price_ils"`
}

// UpdateCourseRequest only touches the fields that are present.
type UpdateCourseRequest struct {
	Name         *string          `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Description  *string          `json:"description,omitempty"`
	InstructorID *int64           `json:"instructor_id,omitempty" binding:"omitempty,gt=0"`
	RoomID       *int64           `json:"room_id,omitempty" binding:"omitempty,gt=0"`
	DayOfWeek    *int             `json:"day_of_week,omitempty" binding:"omitempty,min=0,max=6"`
	StartTime    *string          `json:"start_time,omitempty" binding:"omitempty,clock"`
	EndTime      *string          `json:"end_time,omitempty" binding:"omitempty,clock"`
	MaxCapacity  *int             `json:"max_capacity,omitempty" binding:"omitempty,gt=0"`
	PriceILS     *decimal.Decimal `json:"price_ils,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

type ListQuery struct {
	InstructorID int64
	DayOfWeek    *int
	ActiveOnly   bool
}

type DeleteResult struct {
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
}
