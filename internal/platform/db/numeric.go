package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ErrNonFiniteNumeric is returned for NaN or infinite NUMERIC values.
var ErrNonFiniteNumeric = errors.New("platform/db: non-finite numeric")

// Decimal converts a NUMERIC column without going through float64. NULL
// maps to zero.
func Decimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, ErrNonFiniteNumeric
	}
	if n.Int == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

// Text returns the string value of a nullable TEXT column.
func Text(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}
