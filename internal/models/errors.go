package models

import "errors"

// Sentinel errors surfaced by the stores and the review service.
// Check with errors.Is: errors.Is(err, models.ErrCardNotFound)
var (
	ErrCardNotFound = errors.New("card not found")
	ErrPackNotFound = errors.New("pack not found")
	ErrValidation   = errors.New("validation failed")
)
