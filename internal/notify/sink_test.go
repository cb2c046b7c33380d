package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"esferas/internal/config"
	"esferas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSink(t *testing.T) (*FileSink, string) {
	t.Helper()
	dir := t.TempDir()
	sink, err := NewFileSink(config.NotifyConfig{
		LogPath:   filepath.Join(dir, "logs", "email-log.txt"),
		InviteDir: filepath.Join(dir, "invites"),
	}, nil)
	require.NoError(t, err)
	sink.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return sink, dir
}

func TestFileSink_Send(t *testing.T) {
	sink, dir := newTestSink(t)
	ctx := context.Background()

	err := sink.Send(ctx, models.Notification{
		To:      "b@x.com",
		Subject: "Confirmación de reserva",
		Body:    "hola\nBob",
		Invite:  []byte("BEGIN:VCALENDAR"),
	})
	require.NoError(t, err)

	err = sink.Send(ctx, models.Notification{To: "owner@x.com", Subject: "Nueva reserva recibida", Body: "Cliente: Bob"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "email-log.txt"))
	require.NoError(t, err)
	want := "[2024-05-01T09:00:00.000Z] TO:b@x.com SUBJECT:Confirmación de reserva\nhola\nBob\n\n" +
		"[2024-05-01T09:00:00.000Z] TO:owner@x.com SUBJECT:Nueva reserva recibida\nCliente: Bob\n\n"
	assert.Equal(t, want, string(data))

	invite, err := os.ReadFile(filepath.Join(dir, "invites", "Confirmaci_n_de_reserva.ics"))
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR", string(invite))

	_, err = os.Stat(filepath.Join(dir, "invites", "Nueva_reserva_recibida.ics"))
	assert.True(t, os.IsNotExist(err), "no invite file without payload")
}

func TestFileSink_LogWriteFailure(t *testing.T) {
	sink, dir := newTestSink(t)
	// a directory where the log file should be makes the append fail
	sink.logPath = filepath.Join(dir, "invites")

	err := sink.Send(context.Background(), models.Notification{To: "a@x.com", Subject: "s", Invite: []byte("x")})
	assert.Error(t, err)

	// the invite is still written
	_, statErr := os.Stat(filepath.Join(dir, "invites", "s.ics"))
	assert.NoError(t, statErr)
}

func TestNewFileSink_RequiresLogPath(t *testing.T) {
	_, err := NewFileSink(config.NotifyConfig{}, nil)
	assert.Error(t, err)
}

func TestInviteFileName(t *testing.T) {
	tests := map[string]string{
		"Confirmación de reserva": "Confirmaci_n_de_reserva.ics",
		"Nueva reserva recibida":  "Nueva_reserva_recibida.ics",
		"../../etc/passwd":        "______etc_passwd.ics",
		"":                        ".ics",
	}
	for in, want := range tests {
		assert.Equal(t, want, InviteFileName(in), in)
	}
}
