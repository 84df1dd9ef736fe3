package internalerr

import "errors"

// Sentinel errors. Callers match them with errors.Is; producers wrap them with %w.
var (
	// ErrInvalidConfig covers bad option values and missing or unreadable rule files.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrResourceLoad is returned when the annotation service cannot be built.
	ErrResourceLoad = errors.New("annotation service unavailable")
	// ErrInputRead is returned when a document's input cannot be read.
	ErrInputRead = errors.New("input read failed")
	// ErrAnnotation is returned when the annotation service fails on a document.
	ErrAnnotation = errors.New("annotation failed")
	ErrNotFound   = errors.New("not found")
)
