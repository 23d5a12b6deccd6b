package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/cinefy/cinefy-server/internal/model"
)

// CheckoutRepo persists checkout attempts: one row per payment provider
// session, keyed by the provider's session id. The row records the
// state machine of the payment-gated path and doubles as the
// idempotency mapping from session id to the booking it produced.
// CONFLICTED rows additionally carry the amount the provider collected
// so the out-of-band refund process has a durable record to work from.
type CheckoutRepo struct {
	db *sql.DB
}

// NewCheckoutRepo returns a CheckoutRepo bound to the given database.
func NewCheckoutRepo(db *sql.DB) *CheckoutRepo {
	return &CheckoutRepo{db: db}
}

// Create inserts a new attempt in state PENDING_PROVIDER. The seat
// snapshot is stored as JSON; it mirrors, but never overrides, the
// metadata held by the provider — verification always trusts the
// provider copy.
func (r *CheckoutRepo) Create(ctx context.Context, a *model.CheckoutAttempt) error {
	seats, err := json.Marshal(a.Seats)
	if err != nil {
		return err
	}
	const q = `INSERT INTO checkout_attempts (session_id, user_id, show_id, seats, amount_cents, state)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, a.SessionID, a.UserID, a.ShowID, seats, a.AmountCents, model.CheckoutPendingProvider); err != nil {
		return err
	}
	a.State = model.CheckoutPendingProvider
	return nil
}

// GetBySessionID loads an attempt by provider session id. It returns
// ErrCheckoutNotFound when no attempt exists.
func (r *CheckoutRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.CheckoutAttempt, error) {
	const q = `SELECT session_id, user_id, show_id, seats, amount_cents, state, booking_id, charged_cents, created_at, updated_at
	           FROM checkout_attempts WHERE session_id = ?`
	var a model.CheckoutAttempt
	var seats []byte
	var bookingID sql.NullInt64
	var charged sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, sessionID).Scan(
		&a.SessionID, &a.UserID, &a.ShowID, &seats, &a.AmountCents, &a.State,
		&bookingID, &charged, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCheckoutNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(seats, &a.Seats); err != nil {
		return nil, err
	}
	if bookingID.Valid {
		id := uint64(bookingID.Int64)
		a.BookingID = &id
	}
	if charged.Valid {
		c := uint32(charged.Int64)
		a.ChargedCents = &c
	}
	return &a, nil
}

// MarkConfirmed transitions an attempt to CONFIRMED and records the
// booking it produced along with the amount the provider collected.
func (r *CheckoutRepo) MarkConfirmed(ctx context.Context, sessionID string, bookingID uint64, chargedCents uint32) error {
	const q = `UPDATE checkout_attempts SET state = ?, booking_id = ?, charged_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE session_id = ?`
	return r.exec(ctx, q, model.CheckoutConfirmed, bookingID, chargedCents, sessionID)
}

// MarkFailed records that the provider reported the session unpaid.
// FAILED is not terminal: a later verify re-consults the provider.
func (r *CheckoutRepo) MarkFailed(ctx context.Context, sessionID string) error {
	const q = `UPDATE checkout_attempts SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE session_id = ? AND state IN (?, ?)`
	return r.exec(ctx, q, model.CheckoutFailed, sessionID, model.CheckoutPendingProvider, model.CheckoutFailed)
}

// MarkConflicted durably records that money was collected for seats
// that could not be claimed. The charged amount is kept for the refund
// process.
func (r *CheckoutRepo) MarkConflicted(ctx context.Context, sessionID string, chargedCents uint32) error {
	const q = `UPDATE checkout_attempts SET state = ?, charged_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE session_id = ?`
	return r.exec(ctx, q, model.CheckoutConflicted, chargedCents, sessionID)
}

// ListConflicted returns all attempts stuck in CONFLICTED, oldest
// first, for the reconciliation process to drain.
func (r *CheckoutRepo) ListConflicted(ctx context.Context) ([]model.CheckoutAttempt, error) {
	const q = `SELECT session_id, user_id, show_id, seats, amount_cents, state, booking_id, charged_cents, created_at, updated_at
	           FROM checkout_attempts WHERE state = ? ORDER BY updated_at ASC`
	rows, err := r.db.QueryContext(ctx, q, model.CheckoutConflicted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attempts := make([]model.CheckoutAttempt, 0)
	for rows.Next() {
		var a model.CheckoutAttempt
		var seats []byte
		var bookingID sql.NullInt64
		var charged sql.NullInt64
		if err := rows.Scan(&a.SessionID, &a.UserID, &a.ShowID, &seats, &a.AmountCents, &a.State,
			&bookingID, &charged, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(seats, &a.Seats); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			id := uint64(bookingID.Int64)
			a.BookingID = &id
		}
		if charged.Valid {
			c := uint32(charged.Int64)
			a.ChargedCents = &c
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *CheckoutRepo) exec(ctx context.Context, q string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCheckoutNotFound
	}
	return nil
}
