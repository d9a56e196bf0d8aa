package domain

import "time"

type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleStudent    UserRole = "STUDENT"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	}
	return false
}

// User is the primary user record. Its role and studio assignment are the
// source of truth; the identity account metadata is a synced copy.
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName  string    `json:"full_name" gorm:"type:varchar(255);not null"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Role      UserRole  `json:"role" gorm:"type:varchar(16);not null;index"`
	StudioID  *int64    `json:"studio_id,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BelongsTo(studioID int64) bool {
	return u.StudioID != nil && *u.StudioID == studioID
}
