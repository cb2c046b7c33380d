// Package notify records outgoing notifications instead of delivering email.
package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"esferas/internal/config"
	"esferas/internal/metrics"
	"esferas/internal/models"

	"github.com/rs/zerolog"
)

const logTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FileSink appends every notification to a log file and writes its invite, if any,
// to <invite dir>/<sanitized subject>.ics.
type FileSink struct {
	logPath   string
	inviteDir string
	logger    *zerolog.Logger
	now       func() time.Time

	mu sync.Mutex
}

func NewFileSink(cfg config.NotifyConfig, logger *zerolog.Logger) (*FileSink, error) {
	if cfg.LogPath == "" {
		return nil, fmt.Errorf("notification log path is required")
	}
	inviteDir := cfg.InviteDir
	if inviteDir == "" {
		inviteDir = "."
	}
	if err := os.MkdirAll(inviteDir, 0o755); err != nil {
		return nil, fmt.Errorf("create invite dir: %w", err)
	}
	if dir := filepath.Dir(cfg.LogPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &FileSink{
		logPath:   cfg.LogPath,
		inviteDir: inviteDir,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Send records n. Both writes are attempted; the first error is returned.
func (s *FileSink) Send(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logErr := s.appendLog(n)
	if logErr != nil {
		s.logger.Error().Err(logErr).Str("to", n.To).Msg("could not record notification")
	}

	var inviteErr error
	if len(n.Invite) > 0 {
		inviteErr = s.writeInvite(n)
		if inviteErr != nil {
			s.logger.Error().Err(inviteErr).Str("subject", n.Subject).Msg("could not write invite file")
		}
	}

	if logErr != nil || inviteErr != nil {
		metrics.IncNotification("error")
		if logErr != nil {
			return logErr
		}
		return inviteErr
	}

	metrics.IncNotification("ok")
	s.logger.Debug().Str("to", n.To).Str("subject", n.Subject).Msg("notification recorded")
	return nil
}

func (s *FileSink) appendLog(n models.Notification) error {
	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open notification log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLogEntry(s.now(), n)); err != nil {
		return fmt.Errorf("append notification log: %w", err)
	}
	return nil
}

func (s *FileSink) writeInvite(n models.Notification) error {
	path := filepath.Join(s.inviteDir, InviteFileName(n.Subject))
	if err := os.WriteFile(path, n.Invite, 0o644); err != nil {
		return fmt.Errorf("write invite: %w", err)
	}
	return nil
}

// FormatLogEntry renders one notification log record.
func FormatLogEntry(at time.Time, n models.Notification) string {
	return fmt.Sprintf("[%s] TO:%s SUBJECT:%s\n%s\n\n", at.UTC().Format(logTimeLayout), n.To, n.Subject, n.Body)
}

// InviteFileName maps every character outside [A-Za-z0-9] to '_' and adds the .ics extension.
func InviteFileName(subject string) string {
	var b strings.Builder
	for _, r := range subject {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + ".ics"
}
