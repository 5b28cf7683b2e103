package services

import "errors"

// Service errors
var (
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrEmptyUpload     = errors.New("uploaded file is empty")
)
