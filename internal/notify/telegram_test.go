package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"esferas/internal/events"
	"esferas/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegramSender struct {
	mock.Mock
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func bookingEvent(t *testing.T) *events.Event {
	t.Helper()
	ev, err := events.NewJSONEvent(events.EventBookingCreated, events.BookingEventPayload{
		BookingID:     "b-1",
		Name:          "Bob",
		Email:         "b@x.com",
		Phone:         "555",
		PaymentOption: "local",
		Date:          time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return &ev
}

func TestTelegramForwarder(t *testing.T) {
	t.Run("SendsToOwnerChat", func(t *testing.T) {
		sender := new(mockTelegramSender)
		fwd := NewTelegramForwarder(sender, 42, nil)

		sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.ChatID == 42 &&
				msg.Text == "Nueva reserva recibida\nCliente: Bob\nContacto: b@x.com / 555\nFecha: 2024-05-01 10:00 UTC\nMétodo: local"
		})).Return(tgbotapi.Message{}, nil).Once()

		assert.NoError(t, fwd.HandleBookingCreated(bookingEvent(t)))
		sender.AssertExpectations(t)
	})

	t.Run("SendError", func(t *testing.T) {
		sender := new(mockTelegramSender)
		fwd := NewTelegramForwarder(sender, 42, nil)
		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("offline")).Once()

		assert.ErrorContains(t, fwd.HandleBookingCreated(bookingEvent(t)), "offline")
	})

	t.Run("BadPayload", func(t *testing.T) {
		sender := new(mockTelegramSender)
		fwd := NewTelegramForwarder(sender, 42, nil)

		err := fwd.HandleBookingCreated(&events.Event{Type: events.EventBookingCreated, Payload: []byte("{")})
		assert.Error(t, err)
		sender.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("SubscribedViaBus", func(t *testing.T) {
		sender := new(mockTelegramSender)
		fwd := NewTelegramForwarder(sender, 7, nil)
		bus := events.NewEventBus()
		fwd.Subscribe(bus)

		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()
		require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{BookingID: "x"}))
		sender.AssertExpectations(t)
	})
}

func TestTelegramForwarder_Async(t *testing.T) {
	sender := new(mockTelegramSender)
	fwd := NewTelegramForwarder(sender, 7, nil)
	bus := events.NewEventBus()
	d := worker.NewDispatcher(4, worker.RetryPolicy{MaxRetries: 1, InitialDelay: time.Millisecond}, nil)
	fwd.SubscribeAsync(bus, d)

	sent := make(chan struct{})
	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("timeout")).Once()
	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Run(func(mock.Arguments) {
		close(sent)
	}).Once()

	// publishing only queues the message
	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{BookingID: "x"}))
	sender.AssertNotCalled(t, "Send", mock.Anything)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("telegram message was not retried")
	}
	cancel()
	d.Wait()
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestFormatBookingMessage_WithNotes(t *testing.T) {
	msg := FormatBookingMessage(events.BookingEventPayload{Name: "Eve", Email: "e@x.com", Notes: "tarde", PaymentOption: "remote"})
	assert.Contains(t, msg, "Contacto: e@x.com\n")
	assert.Contains(t, msg, "\nNotas: tarde")
}
