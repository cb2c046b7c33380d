package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"esferas/internal/calendar"
	"esferas/internal/domain"
	"esferas/internal/events"
	"esferas/internal/metrics"
	"esferas/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	msgBookingRequired = "Completa los datos obligatorios."

	subjectCustomer = "Confirmación de reserva"
	subjectOwner    = "Nueva reserva recibida"
)

// Accepted inputs for the booking date, tried in order. Layouts without a
// zone are read as UTC.
var bookingDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// BookingRequest is the body of POST /api/bookings.
type BookingRequest struct {
	Date          string `json:"date"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Notes         string `json:"notes"`
	PaymentOption string `json:"paymentOption"`
}

type BookingResult struct {
	Booking  *models.Booking
	Customer models.User
}

type BookingService struct {
	repo       domain.BookingRepository
	notifier   domain.Notifier
	eventBus   domain.EventPublisher
	ownerEmail string
	location   string
	title      string
	now        func() time.Time
	logger     *zerolog.Logger
}

func NewBookingService(
	repo domain.BookingRepository,
	notifier domain.Notifier,
	eventBus domain.EventPublisher,
	ownerEmail, location, title string,
	logger *zerolog.Logger,
) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if ownerEmail == "" {
		ownerEmail = models.DefaultOwnerEmail
	}
	if location == "" {
		location = models.DefaultLocation
	}
	if title == "" {
		title = models.DefaultInviteTitle
	}
	return &BookingService{
		repo:       repo,
		notifier:   notifier,
		eventBus:   eventBus,
		ownerEmail: ownerEmail,
		location:   location,
		title:      title,
		now:        time.Now,
		logger:     logger,
	}
}

// Submit validates and stores a booking, then notifies the customer and the
// owner. customer is the logged-in session, if any.
func (s *BookingService) Submit(ctx context.Context, req BookingRequest, customer *models.Session) (*BookingResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.PaymentOption = strings.TrimSpace(req.PaymentOption)

	if strings.TrimSpace(req.Date) == "" || req.Name == "" || req.Email == "" || req.PaymentOption == "" {
		return nil, newValidationError(msgBookingRequired)
	}
	if !models.ValidPaymentOption(req.PaymentOption) {
		return nil, newValidationError(msgBookingRequired)
	}

	date, err := ParseBookingDate(req.Date)
	if err != nil || date.IsZero() {
		return nil, newValidationError(msgBookingRequired)
	}

	booking := &models.Booking{
		ID:            uuid.NewString(),
		Date:          date,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         strings.TrimSpace(req.Phone),
		Notes:         strings.TrimSpace(req.Notes),
		PaymentOption: req.PaymentOption,
		CreatedAt:     s.now(),
	}

	summary := BookingSummary(booking)
	invite, err := calendar.NewInvite(calendar.Event{
		Title:       s.title,
		Description: summary,
		Location:    s.location,
		Start:       booking.Date,
		End:         booking.End(),
	})
	if err != nil {
		return nil, fmt.Errorf("build invite: %w", err)
	}

	if err := s.repo.AppendBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("append booking: %w", err)
	}
	metrics.IncBooking(booking.PaymentOption)

	s.notify(ctx, models.Notification{
		To:      booking.Email,
		Subject: subjectCustomer,
		Body:    CustomerBody(summary, booking.PaymentOption),
		Invite:  invite,
	})
	s.notify(ctx, models.Notification{
		To:      s.ownerEmail,
		Subject: subjectOwner,
		Body:    OwnerBody(booking),
		Invite:  invite,
	})

	s.publishCreated(booking)

	result := &BookingResult{
		Booking:  booking,
		Customer: models.User{Name: booking.Name, Email: booking.Email},
	}
	if customer != nil {
		result.Customer = customer.User
	}
	return result, nil
}

// List returns every stored booking in insertion order.
func (s *BookingService) List(ctx context.Context) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx)
}

func (s *BookingService) notify(ctx context.Context, n models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("to", n.To).Str("subject", n.Subject).Msg("notification failed")
	}
}

func (s *BookingService) publishCreated(b *models.Booking) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:     b.ID,
		Name:          b.Name,
		Email:         b.Email,
		Phone:         b.Phone,
		Notes:         b.Notes,
		PaymentOption: b.PaymentOption,
		Date:          b.Date,
	}
	if err := s.eventBus.PublishJSON(events.EventBookingCreated, payload); err != nil {
		s.logger.Error().Err(err).Str("booking_id", b.ID).Msg("failed to publish booking event")
	}
}

// ParseBookingDate accepts an RFC 3339 timestamp, a zone-less date-time or a
// bare date. The result is in UTC.
func ParseBookingDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range bookingDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// BookingSummary is the invite description and the head of the customer email.
func BookingSummary(b *models.Booking) string {
	phone := b.Phone
	if phone == "" {
		phone = "No informado"
	}
	notes := b.Notes
	if notes == "" {
		notes = "Sin notas"
	}
	return fmt.Sprintf("Reserva para %s\nNombre: %s\nEmail: %s\nTeléfono: %s\nNotas: %s\nPago: %s",
		b.Date.Format("Mon Jan 02 2006"), b.Name, b.Email, phone, notes, b.PaymentOption)
}

func CustomerBody(summary, paymentOption string) string {
	method := "MercadoPago"
	if paymentOption == models.PaymentLocal {
		method = "abonar en persona"
	}
	return fmt.Sprintf("%s\nSeleccionaste %s.", summary, method)
}

func OwnerBody(b *models.Booking) string {
	contact := b.Email
	if b.Phone != "" {
		contact += " / " + b.Phone
	}
	notes := b.Notes
	if notes == "" {
		notes = "Sin notas"
	}
	return fmt.Sprintf("Cliente: %s\nContacto: %s\nFecha: %s\nMétodo: %s\nNotas: %s",
		b.Name, contact, b.Date.Format("2006-01-02T15:04:05.000Z07:00"), b.PaymentOption, notes)
}
