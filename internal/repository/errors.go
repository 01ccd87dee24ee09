package repository

import "errors"

var (
	ErrAccountNotFound = errors.New("platform account not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrInvalidInput    = errors.New("invalid input")
)
