package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	txTimeout    = 5 * time.Second

	pgForeignKeyCode = "23503"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Checkout(ctx context.Context, userID int, total decimal.Decimal, itemsPayload string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Record{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET balance = balance - $1
		WHERE id = $2 AND balance >= $1
	`, total, userID)
	if err != nil {
		return Record{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, err
	}
	if n == 0 {
		return Record{}, ErrInsufficientBalance
	}

	rec := Record{UserID: userID, Total: total, Items: itemsPayload}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, total, items)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, total, itemsPayload).Scan(&rec.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Record{}, ErrUnknownUser
		}
		return Record{}, err
	}

	if err := tx.Commit(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, total, items
		FROM orders
		WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, 8)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Total, &rec.Items); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Record, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rec Record
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, total, items
		FROM orders
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.UserID, &rec.Total, &rec.Items)

	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyCode
}
