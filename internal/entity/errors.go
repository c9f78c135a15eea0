package entity

import "errors"

// Domain errors
var (
	// Job errors
	ErrJobNotFound = errors.New("job not found")

	// Report errors
	ErrReportNotFound   = errors.New("report not found")
	ErrReportNotIndexed = errors.New("report is not indexed")
	ErrEmptyDocument    = errors.New("document contains no usable text")

	// Question errors
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoQuestions      = errors.New("question set is empty")
	ErrAnswerNotFound   = errors.New("answer not found")

	// Pipeline errors
	ErrInvalidProfile     = errors.New("invalid chunk profile")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrIndexNotFound      = errors.New("index not found")
	ErrCorruptIndex       = errors.New("corrupt index file")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrBackendUnavailable = errors.New("backend unavailable")

	// File errors
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidExtension = errors.New("invalid file extension")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
