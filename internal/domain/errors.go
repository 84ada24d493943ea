package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrCatalogScan is the only run-level failure of the offer job.
	ErrCatalogScan = errors.New("catalog scan failed")
	// ErrOfferFetch marks a failed call to the offer service for one card product.
	ErrOfferFetch = errors.New("offer fetch failed")
	// ErrJobRunning is returned when a run is requested while one is in progress.
	ErrJobRunning = errors.New("offer job already running")
)
