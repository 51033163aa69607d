package models

import "errors"

// Common errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists (e.g., duplicate platform id)
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrMalformedObservation is returned when an observation is missing its title,
	// rank, or timestamp and cannot be recorded
	ErrMalformedObservation = errors.New("malformed observation")

	// ErrSessionFinalized is returned when a crawl session is modified after it
	// reached a terminal status
	ErrSessionFinalized = errors.New("crawl session already finalized")

	// ErrUnknownMode is returned for a report mode outside daily/incremental/current
	ErrUnknownMode = errors.New("unknown report mode")

	// ErrNoActiveSource is returned when a crawl round starts with no active sources
	ErrNoActiveSource = errors.New("no active sources configured")

	// ErrEmptyReport signals a report with no headlines; boundaries map it to an
	// empty payload or a suppressed push, never to a failure
	ErrEmptyReport = errors.New("report matched no headlines")
)
