package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"esferas/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) GetSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockSessionRepo) SaveSession(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) DeleteSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestFailoverSessionRepository(t *testing.T) {
	primary := new(mockSessionRepo)
	fallback := new(mockSessionRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		session := &models.Session{ID: "1"}
		primary.On("GetSession", ctx, "1").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "1")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryMissFallsThrough", func(t *testing.T) {
		session := &models.Session{ID: "1b"}
		primary.On("GetSession", ctx, "1b").Return(nil, nil).Once()
		fallback.On("GetSession", ctx, "1b").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "1b")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.False(t, repo.Degraded())
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		session := &models.Session{ID: "2"}
		primary.On("GetSession", ctx, "2").Return(nil, errors.New("fail")).Once()
		fallback.On("GetSession", ctx, "2").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "2")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.True(t, repo.Degraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DegradedSkipsPrimary", func(t *testing.T) {
		session := &models.Session{ID: "3"}
		fallback.On("SaveSession", ctx, session).Return(nil).Once()

		assert.NoError(t, repo.SaveSession(ctx, session))
		primary.AssertNotCalled(t, "SaveSession", ctx, session)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { repo.now = time.Now }()

		session := &models.Session{ID: "4"}
		primary.On("SaveSession", ctx, session).Return(nil).Once()

		assert.NoError(t, repo.SaveSession(ctx, session))
		assert.False(t, repo.Degraded())
		primary.AssertExpectations(t)
	})

	t.Run("DeleteHitsBothStores", func(t *testing.T) {
		fallback.On("DeleteSession", ctx, "5").Return(nil).Once()
		primary.On("DeleteSession", ctx, "5").Return(nil).Once()

		assert.NoError(t, repo.DeleteSession(ctx, "5"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DeletePrimaryFailure", func(t *testing.T) {
		fallback.On("DeleteSession", ctx, "6").Return(nil).Once()
		primary.On("DeleteSession", ctx, "6").Return(errors.New("fail")).Once()

		assert.NoError(t, repo.DeleteSession(ctx, "6"))
		assert.True(t, repo.Degraded())
	})
}
