// Package errkind defines the error taxonomy shared across foldersort.
//
// Every package wraps errors with one of these sentinels via fmt.Errorf's
// %w verb so callers can classify a failure with errors.Is without
// depending on string matching or a bespoke error type per package.
package errkind

import "errors"

var (
	// Config covers missing or malformed source/env/category configuration.
	// Fatal at startup.
	Config = errors.New("configuration error")

	// IO covers filesystem permission, missing file, and read/write failures.
	// The affected file is skipped or marked error; the run continues.
	IO = errors.New("i/o error")

	// RuleLoad covers a bad regex or unknown category/action token in the
	// rule file. The offending rule is skipped, not the whole table.
	RuleLoad = errors.New("rule load error")

	// ClassifierUnavailable means the availability probe failed and no
	// usable backend remains while AI classification is required.
	ClassifierUnavailable = errors.New("classifier unavailable")

	// ClassifierTransient covers a retryable HTTP failure or timeout from
	// an AI backend. Exhausted retries degrade to "unknown", never raise.
	ClassifierTransient = errors.New("classifier transient error")

	// Parse covers catalog/template/rule parse failures at load time, and
	// AI reply parse failures (which degrade silently instead of raising).
	Parse = errors.New("parse error")

	// Database covers unexpected catalog write failures. These fail the
	// current batch, never the whole run.
	Database = errors.New("database error")
)
