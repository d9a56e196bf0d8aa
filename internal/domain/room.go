package domain

import "time"

type Room struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	BranchID  int64     `json:"branch_id" gorm:"not null;index"`
	StudioID  int64     `json:"studio_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Capacity  int       `json:"capacity" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Room) TableName() string { return "rooms" }
