package attendance

import "studiohub/internal/domain"

const dateLayout = "2006-01-02"

type Actor struct {
	UserID int64
	Role   domain.UserRole
}

type RecordInput struct {
	StudentID int64                   `json:"student_id" binding:"required,gt=0"`
	Status    domain.AttendanceStatus `json:"status" binding:"required"`
	Notes     string                  `json:"notes" binding:"omitempty,max=1000"`
}

type MarkRequest struct {
	ClassID     int64         `json:"class_id" binding:"required,gt=0"`
	SessionDate string        `json:"session_date" binding:"required"`
	Records     []RecordInput `json:"records" binding:"required,min=1,dive"`
}

type ListQuery struct {
	ClassID     int64
	StudentID   int64
	SessionDate string
}

type Summary struct {
	ClassID  int64                             `json:"class_id"`
	Sessions int64                             `json:"sessions"`
	Total    int64                             `json:"total"`
	Counts   map[domain.AttendanceStatus]int64 `json:"counts"`
}
