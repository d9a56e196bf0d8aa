package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Class is a weekly recurring schedule slot.
type Class struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	StudioID          int64           `json:"studio_id" gorm:"not null;index"`
	InstructorID      int64           `json:"instructor_id" gorm:"not null;index"`
	RoomID            *int64          `json:"room_id,omitempty" gorm:"index"`
	Name              string          `json:"name" gorm:"type:varchar(255);not null"`
	Description       string          `json:"description,omitempty" gorm:"type:text"`
	DayOfWeek         int             `json:"day_of_week" gorm:"not null"`
	StartTime         string          `json:"start_time" gorm:"type:varchar(5);not null"`
	EndTime           string          `json:"end_time" gorm:"type:varchar(5);not null"`
	MaxCapacity       int             `json:"max_capacity" gorm:"not null"`
	CurrentEnrollment int             `json:"current_enrollment" gorm:"not null;default:0"`
	PriceILS          decimal.Decimal `json:"price_ils" gorm:"type:numeric(10,2);not null;default:0"`
	IsActive          bool            `json:"is_active" gorm:"not null"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Class) TableName() string { return "classes" }

func (c *Class) IsFull() bool {
	return c.CurrentEnrollment >= c.MaxCapacity
}

func (c *Class) IsFree() bool {
	return !c.PriceILS.IsPositive()
}
