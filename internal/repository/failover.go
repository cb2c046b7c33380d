package repository

import (
	"context"
	"sync"
	"time"

	"esferas/internal/domain"
	"esferas/internal/models"

	"github.com/rs/zerolog"
)

const defaultRecoveryInterval = time.Minute

// FailoverSessionRepository serves sessions from primary and switches to
// fallback after a primary error. The primary is retried once per recovery interval.
type FailoverSessionRepository struct {
	primary  domain.SessionRepository
	fallback domain.SessionRepository
	logger   *zerolog.Logger

	mu               sync.Mutex
	isDown           bool
	lastCheck        time.Time
	recoveryInterval time.Duration
	now              func() time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverSessionRepository{
		primary:          primary,
		fallback:         fallback,
		logger:           logger,
		recoveryInterval: defaultRecoveryInterval,
		now:              time.Now,
	}
}

// usePrimary reports whether the next call should go to the primary store.
func (r *FailoverSessionRepository) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDown {
		return true
	}
	if r.now().Sub(r.lastCheck) > r.recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDown {
		r.logger.Error().Err(err).Msg("primary session store failed, falling back to memory")
	}
	r.isDown = true
	r.lastCheck = r.now()
}

func (r *FailoverSessionRepository) markUp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isDown {
		r.logger.Info().Msg("primary session store recovered")
	}
	r.isDown = false
}

// Degraded reports whether calls are currently served by the fallback.
func (r *FailoverSessionRepository) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDown
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, id)
		if err == nil {
			r.markUp()
			if session != nil {
				return session, nil
			}
			// sessions created while degraded live only in the fallback
			return r.fallback.GetSession(ctx, id)
		}
		r.markDown(err)
	}
	return r.fallback.GetSession(ctx, id)
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	if r.usePrimary() {
		err := r.primary.SaveSession(ctx, session)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SaveSession(ctx, session)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, id string) error {
	// the id may live in either store
	fallbackErr := r.fallback.DeleteSession(ctx, id)
	if r.usePrimary() {
		err := r.primary.DeleteSession(ctx, id)
		if err == nil {
			r.markUp()
			return fallbackErr
		}
		r.markDown(err)
	}
	return fallbackErr
}
