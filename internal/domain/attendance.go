package domain

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

type Attendance struct {
	ID          int64            `json:"id" gorm:"primaryKey"`
	StudioID    int64            `json:"studio_id" gorm:"not null;index"`
	ClassID     int64            `json:"class_id" gorm:"not null;uniqueIndex:idx_attendance_session"`
	StudentID   int64            `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_session"`
	SessionDate string           `json:"session_date" gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_session"`
	Status      AttendanceStatus `json:"status" gorm:"type:varchar(16);not null"`
	Notes       string           `json:"notes,omitempty" gorm:"type:text"`
	MarkedBy    int64            `json:"marked_by" gorm:"not null"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Attendance) TableName() string { return "attendance" }
