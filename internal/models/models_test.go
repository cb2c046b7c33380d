package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("NoExpiry", func(t *testing.T) {
		s := &Session{ID: "a"}
		assert.False(t, s.Expired(now))
		assert.False(t, s.Expired(now.AddDate(100, 0, 0)))
	})

	t.Run("BeforeExpiry", func(t *testing.T) {
		s := &Session{ID: "a", ExpiresAt: now.Add(time.Minute)}
		assert.False(t, s.Expired(now))
	})

	t.Run("AtExpiry", func(t *testing.T) {
		s := &Session{ID: "a", ExpiresAt: now}
		assert.True(t, s.Expired(now))
	})
}

func TestUser_Valid(t *testing.T) {
	assert.True(t, User{Name: "Ana", Email: "ana@x.com"}.Valid())
	assert.False(t, User{Name: "Ana"}.Valid())
	assert.False(t, User{Email: "ana@x.com"}.Valid())
	assert.False(t, User{Name: "  ", Email: "ana@x.com"}.Valid())
	assert.Equal(t, User{Name: "Ana", Email: "a@x.com"}, User{Name: " Ana ", Email: "a@x.com\n"}.Normalize())
}

func TestValidPaymentOption(t *testing.T) {
	assert.True(t, ValidPaymentOption(PaymentLocal))
	assert.True(t, ValidPaymentOption(PaymentRemote))
	assert.False(t, ValidPaymentOption(""))
	assert.False(t, ValidPaymentOption("cash"))
}

func TestBooking_End(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	b := &Booking{Date: start}
	assert.Equal(t, start.Add(time.Hour), b.End())
}
