// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all tenantcms
// entities. Each store struct wraps a DBTX (a pool or a transaction) and
// exposes typed, tenant-scoped query methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so every store can run
// against the pool or inside a transaction.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// psql builds PostgreSQL statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// RunInTx runs fn inside a transaction. Exactly one of commit or rollback
// happens on every exit path, including panics. A failed rollback is logged
// and never replaces the error returned by fn.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(tx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		rollback(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("transaction rollback failed", "error", err)
	}
}

// WithSavepoint runs fn behind a savepoint when exec is a transaction, so a
// failed statement (such as a unique violation) can be retried without
// aborting the enclosing transaction. Outside a transaction fn runs as is.
func WithSavepoint(ctx context.Context, exec DBTX, name string, fn func() error) error {
	if _, ok := exec.(*sqlx.Tx); !ok {
		return fn()
	}

	if _, err := exec.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}
	if err := fn(); err != nil {
		if _, rbErr := exec.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			slog.Error("rollback to savepoint failed", "savepoint", name, "error", rbErr)
		}
		return err
	}
	if _, err := exec.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint %s: %w", name, err)
	}
	return nil
}

// selectBuilt renders a squirrel SELECT and scans every row into dest.
func selectBuilt(ctx context.Context, exec DBTX, dest any, b sq.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return exec.SelectContext(ctx, dest, query, args...)
}

// getBuilt renders a squirrel SELECT and scans one row into dest.
func getBuilt(ctx context.Context, exec DBTX, dest any, b sq.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return exec.GetContext(ctx, dest, query, args...)
}

// execBuilt renders any squirrel statement and executes it, returning the
// number of affected rows.
func execBuilt(ctx context.Context, exec DBTX, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// countBuilt runs a COUNT(*) over the FROM/WHERE of b.
func countBuilt(ctx context.Context, exec DBTX, b sq.SelectBuilder) (int, error) {
	var total int
	if err := getBuilt(ctx, exec, &total, b.Columns("COUNT(*)")); err != nil {
		return 0, err
	}
	return total, nil
}

// paginate applies LIMIT/OFFSET for bounded page requests.
func paginate(b sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit <= 0 {
		return b
	}
	return b.Limit(uint64(limit)).Offset(uint64(offset))
}

// orderClause returns "column dir" for an allow-listed sort key, falling
// back to def when the key is unknown. Only values from allowed ever reach
// the SQL text.
func orderClause(allowed map[string]string, key, order, def string) string {
	col, ok := allowed[key]
	if !ok {
		col = allowed[def]
	}
	dir := "ASC"
	if order == "desc" || order == "DESC" {
		dir = "DESC"
	}
	return col + " " + dir
}
