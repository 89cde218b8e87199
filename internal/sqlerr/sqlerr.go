// Package sqlerr translates PostgreSQL driver errors into client errors.
//
// Constraint violations become 400s with a readable Spanish message and a
// stable code such as USUARIO_ALREADY_EXISTS; missing rows become 404s and
// anything else a generic 500.
package sqlerr

import "github.com/jackc/pgx/v5/pgconn"

// Code is the category of a database error.
type Code string

const (
	Other               Code = "other"
	UniqueViolation     Code = "unique_violation"
	ForeignKeyViolation Code = "foreign_key_violation"
	NotNullViolation    Code = "not_null_violation"
	CheckViolation      Code = "check_violation"
	ValueTooLong        Code = "string_data_right_truncation"
	SerializationFailed Code = "serialization_failure"
	DeadlockDetected    Code = "deadlock_detected"
)

// Severity mirrors the severity field Postgres attaches to every error.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityUnknown Severity = "UNKNOWN"
)

// SQLSTATE values, see https://www.postgresql.org/docs/current/errcodes-appendix.html.
var sqlstates = map[string]Code{
	"23505": UniqueViolation,
	"23503": ForeignKeyViolation,
	"23502": NotNullViolation,
	"23514": CheckViolation,
	"22001": ValueTooLong,
	"40001": SerializationFailed,
	"40P01": DeadlockDetected,
}

// MapCode maps a SQLSTATE onto a Code.
func MapCode(sqlstate string) Code {
	if code, ok := sqlstates[sqlstate]; ok {
		return code
	}
	return Other
}

func MapSeverity(severity string) Severity {
	switch Severity(severity) {
	case SeverityError, SeverityFatal, SeverityPanic:
		return Severity(severity)
	}
	return SeverityUnknown
}

// Error is a normalized Postgres error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string

	driverErr *pgconn.PgError
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e.driverErr == nil {
		return nil
	}
	return e.driverErr
}
