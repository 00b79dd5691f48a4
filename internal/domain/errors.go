package domain

import "errors"

var (
	// ErrInsufficientHistory means the provider returned no usable history
	// (empty, fewer than MinSessions, or a provider failure).
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrNoWindowData means the history has no sessions inside the analysis window.
	ErrNoWindowData = errors.New("no data in window")

	// ErrInsufficientData is returned by the metrics engine for an empty window
	// or a full history shorter than MinSessions.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoRecords means aggregation was asked to reduce an empty record set.
	ErrNoRecords = errors.New("no valid analysis records")

	// ErrUnknownGroup means a group identifier is not present in the symbol groups file.
	ErrUnknownGroup = errors.New("unknown symbol group")

	// ErrNoSymbols means neither explicit symbols nor a group were resolvable.
	ErrNoSymbols = errors.New("no symbols specified")
)
