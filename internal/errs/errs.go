// Package errs defines the error shapes returned to API clients.
//
// Every failure a client sees is an *HTTPError: a stable machine code, a
// message safe to display, the status, and optional field errors for form
// validation.
package errs
