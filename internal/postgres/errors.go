package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// mapError turns constraint violations into domain errors. Everything else
// passes through unchanged.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == "orders_external_id_key":
		return fmt.Errorf("%w: %s", apperr.ErrDuplicateOrder, pgErr.Detail)
	case pgErr.Code == codeForeignKeyViolation && pgErr.ConstraintName == "orders_customer_id_fkey":
		return fmt.Errorf("%w: %s", apperr.ErrCustomerNotFound, pgErr.Detail)
	case pgErr.Code == codeCheckViolation && strings.HasPrefix(pgErr.ConstraintName, "variants_"):
		return fmt.Errorf("%w: %s", apperr.ErrStockInvariant, pgErr.ConstraintName)
	}
	return err
}
