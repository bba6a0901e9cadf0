package fraud

import "errors"

var (
	ErrAgentNotFound    = errors.New("agent not found")
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrAlertNotFound    = errors.New("alert not found")

	// ErrValidation marks bad caller input (missing or malformed fields).
	ErrValidation = errors.New("validation error")

	// ErrArchiveDisabled is returned by archive reads when no archive is configured.
	ErrArchiveDisabled = errors.New("archive not configured")
)
