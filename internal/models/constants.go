package models

import "time"

const (
	PaymentLocal  = "local"
	PaymentRemote = "remote"
)

// ValidPaymentOption reports whether opt is one of the supported payment labels.
func ValidPaymentOption(opt string) bool {
	return opt == PaymentLocal || opt == PaymentRemote
}

const (
	// SessionCookieName is the cookie carrying the session id.
	SessionCookieName = "sessionId"

	// SessionIDBytes is the amount of randomness in a session id (128 bits).
	SessionIDBytes = 16

	// BookingDuration is the length of every booked slot.
	BookingDuration = time.Hour

	// DefaultMaxBodyBytes caps accepted request bodies.
	DefaultMaxBodyBytes = 1_000_000

	DefaultOwnerEmail  = "dueno@example.com"
	DefaultLocation    = "Calle Wallaby"
	DefaultInviteTitle = "Reserva - Esferas"
	DefaultEmailLog    = "email-log.txt"
)
