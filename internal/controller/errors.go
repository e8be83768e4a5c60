package controller

import "errors"

var (
	// ErrInvalidIndex is returned by DeleteItem for a position outside the list.
	ErrInvalidIndex = errors.New("invalid index")
	// ErrPersist wraps a store write that failed after the in-memory change.
	ErrPersist = errors.New("persist list")
)
