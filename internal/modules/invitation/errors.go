package invitation

import "errors"

var (
	ErrForbidden         = errors.New("only studio admins can create invitations")
	ErrInvalidRole       = errors.New("invitation role must be ADMIN or INSTRUCTOR")
	ErrStudioMismatch    = errors.New("invitation studio does not match the creator's studio")
	ErrInvalidInvitation = errors.New("invalid invitation token")
	ErrInvitationExpired = errors.New("invitation token expired")
	ErrStudioConflict    = errors.New("user already belongs to another studio")
	ErrUserNotFound      = errors.New("user not found")
)
