package domain

import "time"

type Studio struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	SerialNumber string    `json:"serial_number" gorm:"type:varchar(16);uniqueIndex;not null"`
	AdminID      int64     `json:"admin_id" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email,omitempty" gorm:"type:varchar(255)"`
	Phone        string    `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Address      string    `json:"address,omitempty" gorm:"type:text"`
	Website      string    `json:"website,omitempty" gorm:"type:varchar(255)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Studio) TableName() string { return "studios" }

type Branch struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	StudioID  int64     `json:"studio_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Address   string    `json:"address,omitempty" gorm:"type:text"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Branch) TableName() string { return "branches" }
