package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for unwrapping driver errors
	"strings"      // strings to build IN (...) placeholder lists

	"github.com/go-sql-driver/mysql" // mysql exposes driver error codes
)

// mysqlDupEntry is the MySQL error number for a unique key violation.
const mysqlDupEntry = 1062

// InventoryRepo manages the per-show occupancy map stored in the
// occupied_seats table. The table carries a UNIQUE KEY on
// (show_id, seat_label); that key is the serialization point for all
// seat claims. Two transactions racing to insert an overlapping seat
// set cannot both commit: the loser receives a duplicate-key error,
// which this repository maps to ErrSeatConflict, and its transaction
// rolls back with no partial mutation. There is no code path that
// reads the map into memory and writes it back.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo constructs an InventoryRepo given a DB handle.
func NewInventoryRepo(db *sql.DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

// Occupied returns the occupied seat labels for a show, ordered for
// deterministic output. It returns ErrShowNotFound when the show id
// does not resolve, so callers can distinguish "no such show" from
// "fully free show".
func (r *InventoryRepo) Occupied(ctx context.Context, showID uint64) ([]string, error) {
	var exists uint64
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM shows WHERE id = ?`, showID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	const q = `SELECT seat_label FROM occupied_seats WHERE show_id = ? ORDER BY seat_label`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]string, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		seats = append(seats, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// OccupancyMap returns the full seat label → holder map for a show.
func (r *InventoryRepo) OccupancyMap(ctx context.Context, showID uint64) (map[string]string, error) {
	const q = `SELECT seat_label, user_id FROM occupied_seats WHERE show_id = ?`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	m := make(map[string]string)
	for rows.Next() {
		var label, holder string
		if err := rows.Scan(&label, &holder); err != nil {
			return nil, err
		}
		m[label] = holder
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// CheckAvailability reports whether none of the given seats currently
// appear in the show's occupancy map. It is a read-only probe and
// reserves nothing; a true result can be stale by the time the caller
// acts on it, which is why commits re-verify via the unique key.
func (r *InventoryRepo) CheckAvailability(ctx context.Context, showID uint64, seats []string) (bool, error) {
	if len(seats) == 0 {
		return true, nil
	}
	if _, err := NewShowRepo(r.db).GetByID(ctx, showID); err != nil {
		return false, err
	}
	placeholders := make([]string, len(seats))
	args := make([]interface{}, 0, len(seats)+1)
	args = append(args, showID)
	for i, s := range seats {
		placeholders[i] = "?"
		args = append(args, s)
	}
	q := `SELECT COUNT(*) FROM occupied_seats WHERE show_id = ? AND seat_label IN (` +
		strings.Join(placeholders, ",") + `)`
	var taken int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&taken); err != nil {
		return false, err
	}
	return taken == 0, nil
}

// CommitSeatsTx inserts all seats for the show bound to the holder in a
// single statement within the caller's transaction. If any seat is
// already present, the unique key rejects the whole statement and
// ErrSeatConflict is returned; the caller must roll the transaction
// back, which leaves the occupancy map untouched.
func (r *InventoryRepo) CommitSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64, seats []string, holder string) error {
	if len(seats) == 0 {
		return ErrInvalidRequest
	}
	query := `INSERT INTO occupied_seats (show_id, seat_label, user_id) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, showID, s, holder)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return ErrSeatConflict
		}
		return err
	}
	return nil
}
