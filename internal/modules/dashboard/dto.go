package dashboard

import (
	"github.com/shopspring/decimal"

	"studiohub/internal/domain"
)

// Dashboard holds exactly one populated view, matching Role.
type Dashboard struct {
	Role       domain.UserRole `json:"role"`
	Admin      *AdminView      `json:"admin,omitempty"`
	Instructor *InstructorView `json:"instructor,omitempty"`
	Student    *StudentView    `json:"student,omitempty"`
}

type AdminView struct {
	Students           int64           `json:"students"`
	Instructors        int64           `json:"instructors"`
	ActiveClasses      int64           `json:"active_classes"`
	ActiveEnrollments  int64           `json:"active_enrollments"`
	PendingEnrollments int64           `json:"pending_enrollments"`
	PendingPayments    int64           `json:"pending_payments"`
	FailedPayments     int64           `json:"failed_payments"`
	Revenue            decimal.Decimal `json:"revenue"`
}

type ClassLoad struct {
	ClassID     int64  `json:"class_id"`
	Name        string `json:"name"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	Enrolled    int    `json:"enrolled"`
	MaxCapacity int    `json:"max_capacity"`
}

type InstructorView struct {
	Classes       []ClassLoad `json:"classes"`
	TotalEnrolled int         `json:"total_enrolled"`
	TotalCapacity int         `json:"total_capacity"`
}

type StudentView struct {
	Enrollments         []domain.Enrollment `json:"enrollments"`
	OutstandingPayments []domain.Payment    `json:"outstanding_payments"`
	OverdueEnrollments  int                 `json:"overdue_enrollments"`
}
