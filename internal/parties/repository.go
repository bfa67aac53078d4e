package parties

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenledger/greenledger/internal/platform/db"
)

// ErrNotFound indicates the party does not exist.
var ErrNotFound = errors.New("parties: not found")

// Repository reads parties.
type Repository interface {
	Get(ctx context.Context, id int64) (Party, error)
	List(ctx context.Context, req ListPartiesRequest) ([]Party, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const partyColumns = `id, name, type, phone, email, address, opening_balance, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (Party, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = $1`, id)
	p, err := scanParty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Party{}, ErrNotFound
	}
	if err != nil {
		return Party{}, fmt.Errorf("parties: get %d: %w", id, err)
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, req ListPartiesRequest) ([]Party, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, string(req.Type))
		argPos++
	}
	if s := strings.TrimSpace(req.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+s+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM parties "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("parties: count: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM parties %s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		partyColumns, whereClause, argPos, argPos+1)
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("parties: list: %w", err)
	}
	defer rows.Close()

	var out []Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("parties: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func scanParty(row pgx.Row) (Party, error) {
	var p Party
	var partyType string
	var phone, email, address pgtype.Text
	var opening pgtype.Numeric
	if err := row.Scan(&p.ID, &p.Name, &partyType, &phone, &email, &address, &opening, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Party{}, err
	}
	p.Type = Type(partyType)
	p.Phone = textPtr(phone)
	p.Email = textPtr(email)
	p.Address = textPtr(address)
	balance, err := db.Decimal(opening)
	if err != nil {
		return Party{}, err
	}
	p.OpeningBalance = balance
	return p, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
