package store

import "errors"

var (
	// ErrConflict is the slot-conflict failure: the uniqueness/exclusion
	// constraint rejected a write because the window was taken by a
	// concurrent booking. Expected under normal load, never a fault.
	ErrConflict = errors.New("slot conflict")
	ErrNotFound = errors.New("not found")
)
