package notify

import (
	"context"
	"fmt"
	"strings"

	"esferas/internal/domain"
	"esferas/internal/events"
	"esferas/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramForwarder pushes new bookings to the owner's Telegram chat.
type TelegramForwarder struct {
	bot    domain.TelegramSender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramForwarder(bot domain.TelegramSender, chatID int64, logger *zerolog.Logger) *TelegramForwarder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TelegramForwarder{bot: bot, chatID: chatID, logger: logger}
}

// Subscribe registers the forwarder for booking_created events.
func (f *TelegramForwarder) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, f.HandleBookingCreated)
}

// SubscribeAsync hands booking_created events to d, so Telegram latency and
// retries stay off the request path.
func (f *TelegramForwarder) SubscribeAsync(bus *events.EventBus, d *worker.Dispatcher) {
	bus.Subscribe(events.EventBookingCreated, func(event *events.Event) error {
		return d.Enqueue(worker.Job{
			Name: "telegram_booking",
			Run: func(context.Context) error {
				return f.HandleBookingCreated(event)
			},
		})
	})
}

func (f *TelegramForwarder) HandleBookingCreated(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}

	msg := tgbotapi.NewMessage(f.chatID, FormatBookingMessage(payload))
	if _, err := f.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	f.logger.Debug().Str("booking_id", payload.BookingID).Msg("booking forwarded to telegram")
	return nil
}

func FormatBookingMessage(p events.BookingEventPayload) string {
	var b strings.Builder
	b.WriteString("Nueva reserva recibida\n")
	fmt.Fprintf(&b, "Cliente: %s\n", p.Name)
	fmt.Fprintf(&b, "Contacto: %s", p.Email)
	if p.Phone != "" {
		fmt.Fprintf(&b, " / %s", p.Phone)
	}
	fmt.Fprintf(&b, "\nFecha: %s\n", p.Date.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Método: %s", p.PaymentOption)
	if p.Notes != "" {
		fmt.Fprintf(&b, "\nNotas: %s", p.Notes)
	}
	return b.String()
}
