// Package datasource provides data fetching from the external sources the
// analysis pipeline consumes: SEC EDGAR (ticker→CIK mapping and XBRL
// company facts) and stooq (daily close prices).
//
// Sources are independent and read-only, so callers may fetch from them
// in parallel. The only cross-call state is the SEC ticker→CIK cache.
package datasource

import "errors"

// ErrTickerNotFound is returned when a ticker has no CIK mapping. It is a
// definite negative result, distinguishable from a transient fetch failure.
var ErrTickerNotFound = errors.New("ticker not found in SEC mapping")

// ErrMissingUserAgent is returned before any network I/O when the required
// SEC contact user-agent is not configured.
var ErrMissingUserAgent = errors.New(
	`missing SEC user agent: set sec.user_agent (or SEC_USER_AGENT), e.g. "SahamAI/1.0 (contact: email@domain.com)"`)
