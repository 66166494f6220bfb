package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dudoxx/dudoxx-api/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
	// pgvector raises data_exception for a vector of the wrong dimension.
	dataExceptionCode = "22000"
)

// codeErrors maps SQLSTATE codes to store sentinels.
var codeErrors = map[string]error{
	uniqueViolationCode:     store.ErrDuplicate,
	foreignKeyViolationCode: store.ErrInvalidEntity,
	checkViolationCode:      store.ErrInvalidEntity,
	notNullViolationCode:    store.ErrInvalidEntity,
	dataExceptionCode:       store.ErrDimensionMismatch,
}

// uniqueConstraintErrors refines unique violations of named constraints.
var uniqueConstraintErrors = map[string]error{
	"api_keys_prefix_key": store.ErrAPIKeyPrefixExists,
}

// MapError translates a database error into a store sentinel, keeping the
// original error text. Unrecognised errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code == uniqueViolationCode {
		if sentinel, ok := uniqueConstraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %v", sentinel, err)
		}
	}
	sentinel, ok := codeErrors[pgErr.Code]
	if !ok {
		return err
	}
	if detail := pgErr.ConstraintName; detail != "" {
		return fmt.Errorf("%w (%s): %v", sentinel, detail, err)
	}
	if detail := pgErr.ColumnName; detail != "" {
		return fmt.Errorf("%w (%s): %v", sentinel, detail, err)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected returns notFound when result touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
