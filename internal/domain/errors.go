package domain

import "errors"

var (
	// ErrNotFound signals a missing row at the repository boundary.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail surfaces the users.email unique constraint.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateMembership surfaces the (user, tenant) unique constraint.
	ErrDuplicateMembership = errors.New("membership already exists")
)
