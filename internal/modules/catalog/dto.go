package catalog

import "studiohub/internal/domain"

// ---------- STUDIO ----------

type CreateStudioRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Address string `json:"address"`
	Website string `json:"website" validate:"omitempty,url"`
}

type UpdateStudioRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address *string `json:"address,omitempty"`
	Website *string `json:"website,omitempty" validate:"omitempty,url"`
}

type JoinStudioRequest struct {
	SerialNumber string `json:"serial_number" validate:"required,min=4,max=16"`
}

// MembershipResult is returned when the caller's studio assignment changes.
// AccessToken carries the new claims.
type MembershipResult struct {
	Studio         *domain.Studio `json:"studio"`
	AccessToken    string         `json:"access_token,omitempty"`
	IdentitySynced bool           `json:"identity_synced"`
}

type StudioLookup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ---------- BRANCHES ----------

type BranchRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=255"`
	Address string `json:"address"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
}

// ---------- ROOMS ----------

type CreateRoomRequest struct {
	BranchID int64  `json:"branch_id" validate:"required,gt=0"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

type UpdateRoomRequest struct {
	BranchID *int64  `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Capacity *int    `json:"capacity,omitempty" validate:"omitempty,gte=0"`
}
