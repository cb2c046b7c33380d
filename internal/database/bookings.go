package database

import (
	"context"
	"fmt"
	"time"

	"esferas/internal/models"
)

const timeLayout = time.RFC3339Nano

func (db *DB) AppendBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (id, date, name, email, phone, notes, payment_option, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.Date.UTC().Format(timeLayout),
		booking.Name,
		booking.Email,
		booking.Phone,
		booking.Notes,
		booking.PaymentOption,
		booking.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to append booking: %w", err)
	}
	return nil
}

// ListBookings returns bookings in insertion order.
func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT id, date, name, email, phone, notes, payment_option, created_at
			FROM bookings ORDER BY seq`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		var (
			b                models.Booking
			date, createdAt string
		)
		if err := rows.Scan(&b.ID, &date, &b.Name, &b.Email, &b.Phone, &b.Notes, &b.PaymentOption, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if b.Date, err = time.Parse(timeLayout, date); err != nil {
			return nil, fmt.Errorf("booking %s has invalid date: %w", b.ID, err)
		}
		if b.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("booking %s has invalid created_at: %w", b.ID, err)
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) CountBookings(ctx context.Context) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}
