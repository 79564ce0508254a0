package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a unique attribute is already taken.
	ErrDuplicate = errors.New("entity already exists")

	// ErrAlreadySettled is returned when a booking's payment result has already been written.
	ErrAlreadySettled = errors.New("payment already settled")
)
