// Package calendar renders iCalendar invites for bookings.
package calendar

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ProdID = "-//Esferas//ESF//ES"

	// TimestampLayout is the UTC form used for DTSTAMP, DTSTART and DTEND.
	TimestampLayout = "20060102T150405Z"
)

var (
	ErrMissingStart = errors.New("invite start time is required")
	ErrInvalidRange = errors.New("invite end must be after start")
)

type Event struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

func (e Event) validate() error {
	if e.Start.IsZero() {
		return ErrMissingStart
	}
	if !e.End.After(e.Start) {
		return ErrInvalidRange
	}
	return nil
}

// NewInvite renders the event with a fresh UID and the current time as DTSTAMP.
func NewInvite(e Event) ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	return Render(e, uuid.NewString(), time.Now()), nil
}

// Render is the deterministic formatter behind NewInvite.
func Render(e Event, uid string, stamp time.Time) []byte {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ProdID,
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + FormatTimestamp(stamp),
		"DTSTART:" + FormatTimestamp(e.Start),
		"DTEND:" + FormatTimestamp(e.End),
		"SUMMARY:" + escapeText(e.Title),
		"DESCRIPTION:" + escapeText(e.Description),
		"LOCATION:" + escapeText(e.Location),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return []byte(strings.Join(lines, "\r\n"))
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

// escapeText applies RFC 5545 TEXT escaping so multi-line descriptions stay on one content line.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
