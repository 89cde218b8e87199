package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
)

// ErrCode reports the Code of err, or Other when err carries no *Error.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return MapCode(pgErr.Code)
	}
	return Other
}

// IsUniqueViolation reports whether err is a unique violation on constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || MapCode(pgErr.Code) != UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// entities names the singular of each table. Spanish plurals are irregular
// enough that stripping a trailing "s" gets most of them wrong.
var entities = map[string]string{
	"usuarios":             "usuario",
	"proveedores":          "proveedor",
	"conversaciones":       "conversacion",
	"mensajes":             "mensaje",
	"calificaciones":       "calificacion",
	"portafolio_items":     "portafolio",
	"solicitudes_servicio": "solicitud",
}

func entityOf(tableName string) string {
	if e, ok := entities[tableName]; ok {
		return e
	}
	if tableName == "" {
		return "registro"
	}
	return tableName
}

// generateErrorCode builds <ENTITY>_<ACTION>, e.g. USUARIO_ALREADY_EXISTS.
func generateErrorCode(tableName string, errType Code) string {
	domain := strings.ToUpper(entityOf(tableName))

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	case ValueTooLong:
		action = "TOO_LONG"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func formatUserFriendlyMessage(sqlErr *Error) string {
	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("El %s referenciado no existe", referencedEntity(sqlErr))

	case UniqueViolation:
		if column := extractColumnForUniqueViolation(sqlErr.ConstraintName); column != "" {
			return fmt.Sprintf("Ya existe un %s con ese %s", entityOf(sqlErr.TableName), column)
		}
		return fmt.Sprintf("El %s ya existe", entityOf(sqlErr.TableName))

	case NotNullViolation:
		field := humanizeText(sqlErr.ColumnName)
		if field == "" {
			field = "Campo"
		}
		return fmt.Sprintf("%s es obligatorio", field)

	case CheckViolation:
		if field := humanizeText(sqlErr.ColumnName); field != "" {
			return fmt.Sprintf("El valor de %s no es válido", field)
		}
		return "Uno o más valores no son válidos"

	case ValueTooLong:
		// Postgres does not report the column for 22001.
		if field := humanizeText(sqlErr.ColumnName); field != "" {
			return fmt.Sprintf("%s excede el largo permitido", field)
		}
		return "Uno o más valores exceden el largo permitido"

	default:
		return "Ocurrió un error al procesar la solicitud"
	}
}

// referencedEntity prefers the "<entity>_id" column of a foreign key, which
// names the missing row more precisely than the table being written.
func referencedEntity(sqlErr *Error) string {
	column := strings.ToLower(sqlErr.ColumnName)
	if strings.HasSuffix(column, "_id") {
		return strings.TrimSuffix(column, "_id")
	}
	if m := fkConstraint.FindStringSubmatch(sqlErr.ConstraintName); len(m) > 1 {
		return m[1]
	}
	return entityOf(sqlErr.TableName)
}

// Postgres names inline foreign keys <table>_<column>_fkey.
var fkConstraint = regexp.MustCompile(`_([a-z]+)_id_fkey$`)

// humanizeText turns "nombre_completo" into "Nombre Completo".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.Spanish).String(strings.ReplaceAll(text, "_", " "))
}

var uniqueKey = regexp.MustCompile(`^[a-z_]+?_([a-z]+)_(?:key|ukey)$`)

// extractColumnForUniqueViolation infers the column from constraint names of
// the form <table>_<column>_key, e.g. usuarios_email_key.
func extractColumnForUniqueViolation(constraintName string) string {
	for table := range entities {
		if strings.HasPrefix(constraintName, table+"_") {
			rest := strings.TrimPrefix(constraintName, table+"_")
			rest = strings.TrimSuffix(strings.TrimSuffix(rest, "_key"), "_ukey")
			if rest != "" && !strings.Contains(rest, "_") {
				return rest
			}
			return ""
		}
	}
	if m := uniqueKey.FindStringSubmatch(constraintName); len(m) > 1 {
		return m[1]
	}
	return ""
}

// NotFound is returned by repositories when a single-row lookup finds
// nothing. The entity ends up in the client message.
type NotFound struct {
	Entity string
}

func (e *NotFound) Error() string {
	return e.Entity + " no encontrado"
}

func (e *NotFound) Is(target error) bool {
	return target == pgx.ErrNoRows
}

// HandleError converts a database error into an *errs.HTTPError.
//
//   - *errs.HTTPError is returned unchanged
//   - constraint violations and overlong values become 400s
//   - *NotFound and pgx.ErrNoRows become 404s
//   - everything else becomes a 500
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		sqlErr := ConvertPgError(pgErr)
		errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
		userMessage := formatUserFriendlyMessage(sqlErr)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			return errs.NewBadRequestError(userMessage, false, &errorCode, nil, nil)

		case UniqueViolation:
			return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)

		case NotNullViolation:
			fieldErrors := []errs.FieldError{
				{
					Field: strings.ToLower(sqlErr.ColumnName),
					Error: "es obligatorio",
				},
			}
			return errs.NewBadRequestError(userMessage, true, &errorCode, fieldErrors, nil)

		case CheckViolation, ValueTooLong:
			return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)

		default:
			return errs.NewInternalServerError()
		}
	}

	var notFound *NotFound
	if errors.As(err, &notFound) {
		return errs.NewNotFoundError(cases.Title(language.Spanish).String(notFound.Entity)+" no encontrado", true, nil)
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFoundError("Recurso no encontrado", false, nil)
	}

	return errs.NewInternalServerError()
}
