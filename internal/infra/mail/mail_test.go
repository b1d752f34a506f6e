package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/lead-intake/internal/entity"
)

var testEvent = entity.MeetupEvent{
	Title:    "English Meetup",
	Start:    time.Date(2025, 11, 5, 22, 0, 0, 0, time.UTC), // 19h em São Paulo
	Duration: 2 * time.Hour,
	Location: "Av. Paulista, 1000, São Paulo",
	URL:      "https://escola.com.br/meetup",
}

func TestFormatWhen(t *testing.T) {
	assert.Equal(t, "quarta-feira, 05/11 às 19h", FormatWhen(testEvent))

	halfPast := testEvent
	halfPast.Start = halfPast.Start.Add(30 * time.Minute)
	assert.Equal(t, "quarta-feira, 05/11 às 19h30", FormatWhen(halfPast))

	assert.Empty(t, FormatWhen(entity.MeetupEvent{}))
}

func TestBuildICS(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	ics, err := BuildICS(testEvent, "eventos@escola.com.br", "ana@x.com", now)
	require.NoError(t, err)

	out := string(ics)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	assert.Contains(t, out, "DTSTART:20251105T220000Z\r\n")
	assert.Contains(t, out, "DTEND:20251106T000000Z\r\n")
	assert.Contains(t, out, "DTSTAMP:20251001T120000Z\r\n")
	assert.Contains(t, out, `LOCATION:Av. Paulista\, 1000\, São Paulo`)
	assert.Contains(t, out, "ATTENDEE;ROLE=REQ-PARTICIPANT;RSVP=TRUE:mailto:ana@x.com")

	for _, line := range strings.Split(out, "\r\n") {
		assert.LessOrEqual(t, len(line), 75, line)
	}
}

func TestBuildICSRequiresSchedule(t *testing.T) {
	_, err := BuildICS(entity.MeetupEvent{Title: "x"}, "", "", time.Now())
	assert.ErrorIs(t, err, ErrEventNotScheduled)
}

func TestFoldKeepsRunesIntact(t *testing.T) {
	line := "SUMMARY:" + strings.Repeat("ção ", 40)
	folded := fold(line)

	for _, part := range strings.Split(folded, "\r\n") {
		assert.LessOrEqual(t, len(part), 75)
	}
	assert.Equal(t, line, strings.ReplaceAll(folded, "\r\n ", ""))
}

func TestMeetupConfirmationAttachesInvite(t *testing.T) {
	msg, err := MeetupConfirmation("ana@x.com", "Ana", testEvent, []byte("BEGIN:VCALENDAR"))
	require.NoError(t, err)

	assert.Equal(t, "ana@x.com", msg.To)
	assert.Equal(t, "Inscrição confirmada: English Meetup", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Inscrição confirmada, Ana!")
	assert.Contains(t, msg.HTMLBody, "quarta-feira, 05/11 às 19h")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "meetup.ics", msg.Attachments[0].FileName)

	noInvite, err := MeetupConfirmation("ana@x.com", "Ana", testEvent, nil)
	require.NoError(t, err)
	assert.Empty(t, noInvite.Attachments)
}

func TestLeadWelcomeEscapesInput(t *testing.T) {
	msg, err := LeadWelcome(entity.NotificationJob{
		FirstName: "<b>Ana</b>",
		Email:     "ana@x.com",
		Company:   "Acme",
	})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTMLBody, "<b>Ana</b>")
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;Ana&lt;/b&gt;")
	assert.Contains(t, msg.HTMLBody, "Acme")
}

func TestReminderPerType(t *testing.T) {
	cases := map[entity.ReminderType]string{
		entity.ReminderD7:       "Falta uma semana para o English Meetup",
		entity.ReminderD3:       "Faltam 3 dias para o English Meetup",
		entity.ReminderD1:       "É amanhã: English Meetup",
		entity.ReminderFollowup: "Obrigado por participar do English Meetup",
	}
	for typ, subject := range cases {
		msg, err := Reminder(typ, "ana@x.com", "Ana", testEvent)
		require.NoError(t, err, typ)
		assert.Equal(t, subject, msg.Subject)
		assert.Contains(t, msg.HTMLBody, "Olá, Ana!")
	}

	_, err := Reminder("d0", "ana@x.com", "Ana", testEvent)
	assert.Error(t, err)
}

// TestSMTPSenderBuildsMessage - Mensagem MIME com corpo HTML e anexo .ics
func TestSMTPSenderBuildsMessage(t *testing.T) {
	s := NewSMTPSender("smtp.escola.com.br", 587, "user", "pass", "eventos@escola.com.br")

	var sent []*gomail.Message
	s.deliver = func(m ...*gomail.Message) error {
		sent = append(sent, m...)
		return nil
	}

	err := s.Send(context.Background(), entity.EmailMessage{
		To:       "ana@x.com",
		Subject:  "Inscrição confirmada",
		HTMLBody: "<p>Olá</p>",
		Attachments: []entity.Attachment{
			{FileName: "meetup.ics", ContentType: "text/calendar", Content: []byte("BEGIN:VCALENDAR")},
		},
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	assert.Equal(t, []string{"eventos@escola.com.br"}, sent[0].GetHeader("From"))
	assert.Equal(t, []string{"ana@x.com"}, sent[0].GetHeader("To"))

	var raw bytes.Buffer
	_, err = sent[0].WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), `filename="meetup.ics"`)
	assert.Contains(t, raw.String(), "text/calendar")
}

func TestSMTPSenderErrors(t *testing.T) {
	s := NewSMTPSender("smtp.escola.com.br", 587, "", "", "eventos@escola.com.br")
	s.deliver = func(...*gomail.Message) error { return errors.New("connection refused") }

	err := s.Send(context.Background(), entity.EmailMessage{To: "ana@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	assert.ErrorIs(t, NewSMTPSender("", 0, "", "", "").Send(context.Background(), entity.EmailMessage{}), ErrNotConfigured)
}
