package services

import "errors"

var (
	// ErrParsingFailed wraps CSV/row parsing failures that make the whole
	// upload unusable.
	ErrParsingFailed = errors.New("parsing failed")

	// ErrProcessingFailed wraps failures while computing metrics from a
	// successfully parsed upload.
	ErrProcessingFailed = errors.New("processing failed")

	// ErrTickerNotFound means the symbol search returned no match for a
	// product name.
	ErrTickerNotFound = errors.New("ticker not found")
)
