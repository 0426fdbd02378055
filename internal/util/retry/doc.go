// Package retry retries transient per-host failures with exponential
// backoff.
//
// [Do] never retries errors marked with [Fatal], and callers decide which
// errors are transient with [WithRetryable]. The default is no retries at
// all: an operation runs exactly once unless [WithMaxRetries] says otherwise.
package retry
