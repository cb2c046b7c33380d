package repository

import (
	"context"
	"sync"

	"esferas/internal/models"
)

// MemorySessionRepository keeps sessions in process memory.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]models.Session)}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// MemoryBookingRepository is an append-only in-memory booking log.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings []models.Booking
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{}
}

func (r *MemoryBookingRepository) AppendBooking(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, *booking)
	return nil
}

func (r *MemoryBookingRepository) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Booking, len(r.bookings))
	for i := range r.bookings {
		b := r.bookings[i]
		out[i] = &b
	}
	return out, nil
}

func (r *MemoryBookingRepository) CountBookings(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bookings), nil
}
