package mail

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/lead-intake/internal/entity"
)

const icsTimeFormat = "20060102T150405Z"

var ErrEventNotScheduled = errors.New("meetup sem data configurada")

// BuildICS gera um convite iCalendar (RFC 5545) de um único evento.
func BuildICS(event entity.MeetupEvent, organizer, attendee string, now time.Time) ([]byte, error) {
	if !event.Scheduled() {
		return nil, ErrEventNotScheduled
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//lead-intake//meetup//PT",
		"CALSCALE:GREGORIAN",
		"METHOD:REQUEST",
		"BEGIN:VEVENT",
		"UID:" + uuid.NewString() + "@lead-intake",
		"DTSTAMP:" + now.UTC().Format(icsTimeFormat),
		"DTSTART:" + event.Start.UTC().Format(icsTimeFormat),
		"DTEND:" + event.End().UTC().Format(icsTimeFormat),
		"SUMMARY:" + escapeText(event.Title),
	}
	if event.Location != "" {
		lines = append(lines, "LOCATION:"+escapeText(event.Location))
	}
	if event.URL != "" {
		lines = append(lines, "URL:"+event.URL, "DESCRIPTION:"+escapeText(event.URL))
	}
	if organizer != "" {
		lines = append(lines, "ORGANIZER:mailto:"+organizer)
	}
	if attendee != "" {
		lines = append(lines, "ATTENDEE;ROLE=REQ-PARTICIPANT;RSVP=TRUE:mailto:"+attendee)
	}
	lines = append(lines,
		"STATUS:CONFIRMED",
		"BEGIN:VALARM",
		"TRIGGER:-PT1H",
		"ACTION:DISPLAY",
		"DESCRIPTION:"+escapeText(event.Title),
		"END:VALARM",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(fold(l))
		b.WriteString("\r\n")
	}
	return []byte(b.String()), nil
}

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// fold quebra linhas com mais de 75 octetos sem cortar sequências UTF-8.
func fold(line string) string {
	const limit = 75
	if len(line) <= limit {
		return line
	}

	var b strings.Builder
	width := 0
	for _, r := range line {
		size := len(string(r))
		if width+size > limit {
			b.WriteString("\r\n ")
			width = 1
		}
		b.WriteRune(r)
		width += size
	}
	return b.String()
}
