// Package validation binds and validates request payloads.
//
// Payloads declare rules with `validator` struct tags; failures come back as
// a 400 *errs.HTTPError listing one entry per offending field.
package validation
