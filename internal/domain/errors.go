package domain

import "errors"

// ValidationError indicates a URL failed local validation before any I/O.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ExtractionError indicates the media collaborator could not resolve metadata.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return "extraction failed for " + e.URL + ": " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DownloadError indicates a transfer or post-processing failure.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return "download failed for " + e.URL + ": " + e.Err.Error()
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ConflictError indicates an operation was rejected because the engine or
// orchestrator is already busy. The request is dropped, not queued.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// PersistenceError indicates a history read/write failure. History is
// best-effort, so this error is logged and never raised into callers.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return "persistence failed for " + e.Path + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UpdateError indicates a network or packaging failure during self-update.
type UpdateError struct {
	Message string
	Err     error
}

func (e *UpdateError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UpdateError) Unwrap() error { return e.Err }

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
