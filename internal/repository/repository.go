// Package repository holds the SQL for every table.
//
// Repositories take the pgx pool directly, scan rows into the model types by
// their db tags and report a missing row as *sqlerr.NotFound so the global
// error handler can turn it into a 404.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sebastianleon1-sys/Zerby2/internal/sqlerr"
)

// DBTX is the part of pgxpool.Pool (and pgx.Tx) the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ErrEmailTaken is returned by the account Create methods when either account
// table already holds the email.
var ErrEmailTaken = errors.New("email already registered")

// claimEmail fails with ErrEmailTaken when a usuario or proveedor already
// uses email. It takes a transaction-scoped advisory lock on the lowercased
// email first, so concurrent registrations of one email in the two tables
// run one after the other.
func claimEmail(ctx context.Context, tx pgx.Tx, email string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('account_email:' || lower($1)))`, email); err != nil {
		return fmt.Errorf("locking email: %w", err)
	}

	var taken bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM usuarios WHERE lower(email) = lower($1))
			OR EXISTS (SELECT 1 FROM proveedores WHERE lower(email) = lower($1))`, email).Scan(&taken)
	if err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

// getOne runs a single-row query and scans it into T.
func getOne[T any](ctx context.Context, db DBTX, entity, query string, args ...any) (*T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &sqlerr.NotFound{Entity: entity}
	}
	return item, err
}

func getMany[T any](ctx context.Context, db DBTX, query string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term anywhere, with the
// wildcards in term itself escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
