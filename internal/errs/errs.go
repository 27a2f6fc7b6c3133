// Package errs defines the sentinel error kinds shared across the
// scanning and emission pipeline, so callers can classify a failure
// with errors.Is without depending on the package that produced it.
package errs

import "errors"

var (
	ErrConfig                = errors.New("config error")
	ErrIO                    = errors.New("io error")
	ErrMalformedArchive      = errors.New("malformed archive")
	ErrMissingControl        = errors.New("missing control archive")
	ErrControlParse          = errors.New("control parse error")
	ErrUnsupportedCompression = errors.New("unsupported compression")
	ErrDBTransient           = errors.New("transient database error")
	ErrDBFatal               = errors.New("fatal database error")
	ErrSigning               = errors.New("signing error")
	ErrDuplicateKey          = errors.New("duplicate key")
	ErrCancelled             = errors.New("operation cancelled")
)

// Issue error-number table, referenced by internal/store when
// recording a per-file Issue row (spec.md §7/§8 scenario 5).
const (
	ErrnoMalformedArchive = 101
	ErrnoMissingControl   = 102
	ErrnoControlParse     = 103
	ErrnoUnsupportedCompression = 104
	ErrnoIO               = 105
	ErrnoDuplicateKey     = 106
	// ErrnoSOBreakProvide marks an Issue carrying a detail.sover_provide
	// hint consumed by the so_breaks materializer's second join disjunct.
	ErrnoSOBreakProvide = 431
)
