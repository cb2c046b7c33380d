package domain

import (
	"context"

	"esferas/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SessionRepository stores sessions by id. GetSession returns nil, nil for unknown ids.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id string) error
}

// BookingRepository is an append-only booking log.
type BookingRepository interface {
	AppendBooking(ctx context.Context, booking *models.Booking) error
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	CountBookings(ctx context.Context) (int, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Notifier interface {
	Send(ctx context.Context, n models.Notification) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
