package auth

import "studiohub/internal/domain"

type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8,max=72"`
	FullName     string `json:"full_name" binding:"required,min=2,max=255"`
	Phone        string `json:"phone" binding:"omitempty,max=32"`
	InviteToken  string `json:"invite_token"`
	StudioSerial string `json:"studio_serial"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type Result struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`

	// Set on registration with an invite token that could not be redeemed.
	InvitationError string `json:"invitation_error,omitempty"`
}
