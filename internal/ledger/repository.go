package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenledger/greenledger/internal/platform/db"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Store backed by Postgres.
func NewRepository(pool *pgxpool.Pool) Store {
	return &repository{pool: pool}
}

// window renders the party and date predicate for a date column.
func window(column string, q Query) (string, []any) {
	clause := fmt.Sprintf("party_id = $1 AND %s < $2", column)
	args := []any{q.PartyID, q.End}
	if !q.Start.IsZero() {
		clause += fmt.Sprintf(" AND %s >= $3", column)
		args = append(args, q.Start)
	}
	return clause, args
}

func (r *repository) Sales(ctx context.Context, q Query) ([]SaleRecord, error) {
	where, args := window("invoice_date", q)
	rows, err := r.pool.Query(ctx, `SELECT id, party_id, invoice_number, invoice_date, grand_total, billing_description
FROM sales WHERE `+where+` ORDER BY invoice_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: query sales: %w", err)
	}
	return scanAll(rows, func(row pgx.CollectableRow) (SaleRecord, error) {
		var rec SaleRecord
		var total pgtype.Numeric
		var desc pgtype.Text
		if err := row.Scan(&rec.ID, &rec.PartyID, &rec.InvoiceNumber, &rec.InvoiceDate, &total, &desc); err != nil {
			return rec, err
		}
		rec.BillingDescription = db.Text(desc)
		value, err := db.Decimal(total)
		if err != nil {
			return rec, fmt.Errorf("id %d: %w", rec.ID, err)
		}
		rec.GrandTotal = value
		return rec, nil
	})
}

func (r *repository) Purchases(ctx context.Context, q Query) ([]PurchaseRecord, error) {
	where, args := window("bill_date", q)
	rows, err := r.pool.Query(ctx, `SELECT id, party_id, bill_number, bill_date, amount
FROM purchases WHERE `+where+` ORDER BY bill_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: query purchases: %w", err)
	}
	return scanAll(rows, func(row pgx.CollectableRow) (PurchaseRecord, error) {
		var rec PurchaseRecord
		var amount pgtype.Numeric
		if err := row.Scan(&rec.ID, &rec.PartyID, &rec.BillNumber, &rec.BillDate, &amount); err != nil {
			return rec, err
		}
		value, err := db.Decimal(amount)
		if err != nil {
			return rec, fmt.Errorf("id %d: %w", rec.ID, err)
		}
		rec.Amount = value
		return rec, nil
	})
}

func (r *repository) Expenses(ctx context.Context, q Query) ([]ExpenseRecord, error) {
	where, args := window("expense_date", q)
	rows, err := r.pool.Query(ctx, `SELECT id, party_id, voucher_number, expense_date, amount, category, description
FROM expenses WHERE `+where+` ORDER BY expense_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: query expenses: %w", err)
	}
	return scanAll(rows, func(row pgx.CollectableRow) (ExpenseRecord, error) {
		var rec ExpenseRecord
		var partyID pgtype.Int8
		var amount pgtype.Numeric
		var category, desc pgtype.Text
		if err := row.Scan(&rec.ID, &partyID, &rec.VoucherNumber, &rec.Date, &amount, &category, &desc); err != nil {
			return rec, err
		}
		if partyID.Valid {
			id := partyID.Int64
			rec.PartyID = &id
		}
		rec.Category = db.Text(category)
		rec.Description = db.Text(desc)
		value, err := db.Decimal(amount)
		if err != nil {
			return rec, fmt.Errorf("id %d: %w", rec.ID, err)
		}
		rec.Amount = value
		return rec, nil
	})
}

func (r *repository) Payments(ctx context.Context, q Query) ([]PaymentRecord, error) {
	where, args := window("payment_date", q)
	rows, err := r.pool.Query(ctx, `SELECT id, party_id, payment_date, amount, received_or_paid, cheque_or_txn_ref, method, remarks
FROM payments WHERE `+where+` ORDER BY payment_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: query payments: %w", err)
	}
	return scanAll(rows, func(row pgx.CollectableRow) (PaymentRecord, error) {
		var rec PaymentRecord
		var amount pgtype.Numeric
		var direction string
		var ref, method, remarks pgtype.Text
		if err := row.Scan(&rec.ID, &rec.PartyID, &rec.Date, &amount, &direction, &ref, &method, &remarks); err != nil {
			return rec, err
		}
		rec.ReceivedOrPaid = PaymentDirection(direction)
		rec.Reference = db.Text(ref)
		rec.Method = db.Text(method)
		rec.Remarks = db.Text(remarks)
		value, err := db.Decimal(amount)
		if err != nil {
			return rec, fmt.Errorf("id %d: %w", rec.ID, err)
		}
		rec.Amount = value
		return rec, nil
	})
}

func (r *repository) Returns(ctx context.Context, q Query) ([]ReturnRecord, error) {
	where, args := window("return_date", q)
	rows, err := r.pool.Query(ctx, `SELECT id, party_id, note_number, return_date, amount, return_type, reason
FROM returns WHERE `+where+` ORDER BY return_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: query returns: %w", err)
	}
	return scanAll(rows, func(row pgx.CollectableRow) (ReturnRecord, error) {
		var rec ReturnRecord
		var amount pgtype.Numeric
		var returnType string
		var reason pgtype.Text
		if err := row.Scan(&rec.ID, &rec.PartyID, &rec.Number, &rec.Date, &amount, &returnType, &reason); err != nil {
			return rec, err
		}
		rec.ReturnType = ReturnType(returnType)
		rec.Reason = db.Text(reason)
		value, err := db.Decimal(amount)
		if err != nil {
			return rec, fmt.Errorf("id %d: %w", rec.ID, err)
		}
		rec.Amount = value
		return rec, nil
	})
}

// scanAll scans every row. DATE columns decode as UTC midnight.
func scanAll[T any](rows pgx.Rows, scan pgx.RowToFunc[T]) ([]T, error) {
	out, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("ledger: scan: %w", err)
	}
	return out, nil
}
