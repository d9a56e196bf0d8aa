package user

import "errors"

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
	ErrSelfDemotion = errors.New("admins cannot change their own role")
)
