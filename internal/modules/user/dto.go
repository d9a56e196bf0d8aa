package user

import "studiohub/internal/domain"

type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"required,min=2,max=255"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
}

type ChangeRoleRequest struct {
	Role domain.UserRole `json:"role" binding:"required"`
}

type Profile struct {
	*domain.User
	Studio *domain.Studio `json:"studio,omitempty"`
}

type StudentDetail struct {
	*domain.User
	Enrollments []domain.Enrollment `json:"enrollments"`
}

type RoleChangeResult struct {
	User           *domain.User `json:"user"`
	IdentitySynced bool         `json:"identity_synced"`
}
