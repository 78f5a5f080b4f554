package internal

import "errors"

var (
	ErrEmptyQuery        = errors.New("query is empty")
	ErrNoIndex           = errors.New("no images indexed")
	ErrNoFolder          = errors.New("no folder selected")
	ErrBusy              = errors.New("another task is running")
	ErrNotDirectory      = errors.New("not a directory")
	ErrImageRejected     = errors.New("encoder rejected image")
	ErrZeroVector        = errors.New("encoder returned a zero vector")
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
