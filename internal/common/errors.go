// Package common defines shared constants and sentinel errors used across
// the backup and restore layers of callvault. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// State blob errors. A missing blob (first-ever backup) is NOT an
	// error; readers return a sentinel state for that case instead.
	ErrStateCorrupt = errors.New("backup state corrupt")

	// Codec errors.
	ErrFutureFormat    = errors.New("format version newer than supported")
	ErrMalformedRecord = errors.New("malformed call record payload")

	// Transport errors.
	ErrTransportUnavailable = errors.New("backup transport unavailable")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
)
