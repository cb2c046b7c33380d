package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"esferas/internal/domain"
	"esferas/internal/events"
	"esferas/internal/metrics"
	"esferas/internal/models"

	"github.com/rs/zerolog"
)

const msgLoginRequired = "Nombre y email son obligatorios."

type SessionService struct {
	repo     domain.SessionRepository
	eventBus domain.EventPublisher
	ttl      time.Duration
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewSessionService(repo domain.SessionRepository, eventBus domain.EventPublisher, ttl time.Duration, logger *zerolog.Logger) *SessionService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SessionService{
		repo:     repo,
		eventBus: eventBus,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// TTL is the configured session lifetime; zero means sessions never expire.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Create opens a session for user under a fresh random id.
func (s *SessionService) Create(ctx context.Context, user models.User) (*models.Session, error) {
	user = user.Normalize()
	if !user.Valid() {
		return nil, newValidationError(msgLoginRequired)
	}

	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.Session{ID: id, User: user, CreatedAt: now}
	if s.ttl > 0 {
		session.ExpiresAt = now.Add(s.ttl)
	}

	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	metrics.IncSessionCreated()
	s.publish(events.EventSessionCreated, user)
	return session, nil
}

// Get resolves a session id. Empty, unknown and expired ids yield nil, nil.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, nil
	}

	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if session.Expired(s.now()) {
		if err := s.repo.DeleteSession(ctx, id); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drop expired session")
		} else {
			metrics.IncSessionDestroyed()
		}
		return nil, nil
	}

	return session, nil
}

// Destroy removes the session if it exists. Unknown ids are not an error.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil
	}

	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	metrics.IncSessionDestroyed()
	s.publish(events.EventSessionDestroyed, session.User)
	return nil
}

func (s *SessionService) publish(eventType string, user models.User) {
	if s.eventBus == nil {
		return
	}
	payload := events.SessionEventPayload{Name: user.Name, Email: user.Email}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

// NewSessionID returns 128 random bits, hex encoded.
func NewSessionID() (string, error) {
	buf := make([]byte, models.SessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
