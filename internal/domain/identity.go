package domain

import (
	"time"

	"gorm.io/datatypes"
)

// IdentityAccount is the identity-provider side of a user: credentials plus
// the app metadata embedded into issued session tokens.
type IdentityAccount struct {
	ID           int64             `json:"id" gorm:"primaryKey"`
	Email        string            `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string            `json:"-" gorm:"type:varchar(255);not null"`
	AppMetadata  datatypes.JSONMap `json:"app_metadata"`
	LastSignInAt *time.Time        `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (IdentityAccount) TableName() string { return "identity_accounts" }

// AppMetadata is the typed view of IdentityAccount.AppMetadata.
type AppMetadata struct {
	Role     UserRole
	StudioID *int64
}

func (m AppMetadata) ToJSONMap() datatypes.JSONMap {
	out := datatypes.JSONMap{"role": string(m.Role)}
	if m.StudioID != nil {
		out["studio_id"] = *m.StudioID
	} else {
		out["studio_id"] = nil
	}
	return out
}

func AppMetadataFromJSONMap(m datatypes.JSONMap) AppMetadata {
	var md AppMetadata
	if role, ok := m["role"].(string); ok {
		md.Role = UserRole(role)
	}
	switch v := m["studio_id"].(type) {
	case float64:
		id := int64(v)
		md.StudioID = &id
	case int64:
		id := v
		md.StudioID = &id
	case int:
		id := int64(v)
		md.StudioID = &id
	}
	return md
}

// Matches reports whether the metadata agrees with the primary record.
func (m AppMetadata) Matches(u *User) bool {
	if m.Role != u.Role {
		return false
	}
	if (m.StudioID == nil) != (u.StudioID == nil) {
		return false
	}
	return m.StudioID == nil || *m.StudioID == *u.StudioID
}
