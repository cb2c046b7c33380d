package events

import (
	"github.com/rs/zerolog"
)

// SubscribeAudit writes one log entry per session and booking event.
func SubscribeAudit(bus *EventBus, logger *zerolog.Logger) {
	sessionEntry := func(event *Event) error {
		var p SessionEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		logger.Info().
			Str("event", event.Type).
			Str("email", p.Email).
			Time("at", event.CreatedAt).
			Msg("audit")
		return nil
	}
	bus.Subscribe(EventSessionCreated, sessionEntry)
	bus.Subscribe(EventSessionDestroyed, sessionEntry)

	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		var p BookingEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		logger.Info().
			Str("event", event.Type).
			Str("booking_id", p.BookingID).
			Str("email", p.Email).
			Time("date", p.Date).
			Time("at", event.CreatedAt).
			Msg("audit")
		return nil
	})
}
