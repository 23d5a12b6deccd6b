package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/cinefy/cinefy-server/internal/model"
)

// BookingRepo provides the append-only booking ledger. Bookings are
// created exactly once — in the same transaction that claims their
// seats — and the repository exposes no update or delete operation.
// All timestamp fields are stored in UTC.
type BookingRepo struct {
	db  *sql.DB
	inv *InventoryRepo
}

// NewBookingRepo returns a BookingRepo bound to the given database and
// inventory repository. The inventory repository is required because a
// booking insert is only valid together with a successful seat claim.
func NewBookingRepo(db *sql.DB, inv *InventoryRepo) *BookingRepo {
	return &BookingRepo{db: db, inv: inv}
}

// CreateWithSeats atomically claims the booking's seats and appends the
// booking to the ledger. The whole operation runs in one transaction:
// either a booking exists and its seats are present in the occupancy
// map, or neither happened. It returns ErrShowNotFound when the show
// does not resolve and ErrSeatConflict when any seat is already taken;
// in both cases no state changes.
//
// seatPrices must carry the server-computed per-seat price for every
// seat in b.Seats.
func (r *BookingRepo) CreateWithSeats(ctx context.Context, b *model.Booking, seatPrices map[string]uint32) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// Verify the show exists inside the transaction so a booking can
	// never reference a vanished show.
	var showID uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM shows WHERE id = ?`, b.ShowID).Scan(&showID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShowNotFound
		}
		return err
	}
	if err := r.inv.CommitSeatsTx(ctx, tx, b.ShowID, b.Seats, b.UserID); err != nil {
		return err
	}
	const ins = `INSERT INTO bookings (user_id, show_id, amount_cents, payment_ref, is_paid) VALUES (?, ?, ?, ?, ?)`
	var payRef sql.NullString
	if b.PaymentRef != nil {
		payRef = sql.NullString{String: *b.PaymentRef, Valid: true}
	}
	res, err := tx.ExecContext(ctx, ins, b.UserID, b.ShowID, b.AmountCents, payRef, b.IsPaid)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Bulk insert the per-seat rows with their charged prices.
	query := `INSERT INTO booking_seats (booking_id, seat_label, price_cents) VALUES `
	args := make([]interface{}, 0, len(b.Seats)*3)
	for i, s := range b.Seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, b.ID, s, seatPrices[s])
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	// Read back the creation timestamp assigned by the database.
	if err := tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByPaymentRef returns the booking created for the given provider
// session id, or ErrBookingNotFound. It is the idempotency lookup for
// repeated payment verifications.
func (r *BookingRepo) GetByPaymentRef(ctx context.Context, paymentRef string) (*model.Booking, error) {
	const q = `SELECT id, user_id, show_id, amount_cents, payment_ref, is_paid, created_at
	           FROM bookings WHERE payment_ref = ?`
	b, err := r.scanOne(ctx, q, paymentRef)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetByID returns a single booking with its seats.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, show_id, amount_cents, payment_ref, is_paid, created_at
	           FROM bookings WHERE id = ?`
	return r.scanOne(ctx, q, id)
}

func (r *BookingRepo) scanOne(ctx context.Context, q string, arg interface{}) (*model.Booking, error) {
	var b model.Booking
	var payRef sql.NullString
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&b.ID, &b.UserID, &b.ShowID, &b.AmountCents, &payRef, &b.IsPaid, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if payRef.Valid {
		ref := payRef.String
		b.PaymentRef = &ref
	}
	if err := r.loadSeats(ctx, []*model.Booking{&b}); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByUser returns all bookings made by the given user, newest
// first, with their seat labels populated. When no bookings exist an
// empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	const q = `SELECT id, user_id, show_id, amount_cents, payment_ref, is_paid, created_at
	           FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, userID)
}

func (r *BookingRepo) list(ctx context.Context, q string, arg interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		var payRef sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&b.ID, &b.UserID, &b.ShowID, &b.AmountCents, &payRef, &b.IsPaid, &createdAt); err != nil {
			return nil, err
		}
		if payRef.Valid {
			ref := payRef.String
			b.PaymentRef = &ref
		}
		b.CreatedAt = createdAt
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}
	ptrs := make([]*model.Booking, len(bookings))
	for i := range bookings {
		ptrs[i] = &bookings[i]
	}
	if err := r.loadSeats(ctx, ptrs); err != nil {
		return nil, err
	}
	return bookings, nil
}

// loadSeats populates Seats for all given bookings in a single query.
func (r *BookingRepo) loadSeats(ctx context.Context, bookings []*model.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]interface{}, 0, len(bookings))
	placeholders := make([]string, 0, len(bookings))
	index := make(map[uint64]*model.Booking, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
		placeholders = append(placeholders, "?")
		index[b.ID] = b
		b.Seats = []string{}
	}
	q := `SELECT booking_id, seat_label FROM booking_seats
	      WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY booking_id, seat_label`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bid uint64
		var label string
		if err := rows.Scan(&bid, &label); err != nil {
			return err
		}
		if b, ok := index[bid]; ok {
			b.Seats = append(b.Seats, label)
		}
	}
	return rows.Err()
}
