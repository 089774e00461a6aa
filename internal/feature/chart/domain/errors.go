// Package domain defines domain-level errors for the chart feature.
package domain

import "errors"

// Domain errors for chart data operations.
// These errors represent business outcomes and should be mapped to HTTP status
// codes by the transport layer.
var (
	// ErrInstrumentNotFound indicates that the requested instrument is not in
	// the configured instrument universe.
	ErrInstrumentNotFound = errors.New("instrument not found")

	// ErrNoData indicates that a fetch yielded zero usable candles after the
	// cache and the configured upstream were both consulted.
	ErrNoData = errors.New("no data available")
)
