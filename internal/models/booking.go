package models

import "time"

type Booking struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	PaymentOption string    `json:"payment_option"` // local, remote
	CreatedAt     time.Time `json:"created_at"`
}

// End returns the end of the booked slot.
func (b *Booking) End() time.Time {
	return b.Date.Add(BookingDuration)
}

// Notification is an outgoing "email" handed to a sink. It is not stored.
type Notification struct {
	To      string
	Subject string
	Body    string
	Invite  []byte
}
