package invitation

import (
	"time"

	"studiohub/internal/domain"
)

type CreateRequest struct {
	Role     domain.UserRole `json:"role" binding:"required"`
	StudioID *int64          `json:"studio_id"`
}

type AcceptRequest struct {
	Token string `json:"token" binding:"required"`
}

type CreateResult struct {
	Token      string          `json:"token"`
	InviteLink string          `json:"invite_link"`
	Role       domain.UserRole `json:"role"`
	StudioID   *int64          `json:"studio_id,omitempty"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// Info is the decoded content of a valid invitation.
type Info struct {
	Role       domain.UserRole `json:"role"`
	StudioID   *int64          `json:"studio_id,omitempty"`
	StudioName string          `json:"studio_name,omitempty"`
	InviterID  int64           `json:"inviter_id"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

type AcceptResult struct {
	User           *domain.User `json:"user"`
	IdentitySynced bool         `json:"identity_synced"`
	AccessToken    string       `json:"access_token,omitempty"`
}
