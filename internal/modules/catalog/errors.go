package catalog

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrStudioNotFound   = errors.New("studio not found")
	ErrAlreadyHasStudio = errors.New("user already belongs to a studio")
	ErrForbidden        = errors.New("forbidden")
	ErrBranchNotFound   = errors.New("branch not found in this studio")
)
