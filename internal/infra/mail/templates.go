package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/xavierca1/lead-intake/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var saoPaulo = loadSaoPaulo()

func loadSaoPaulo() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

var weekdays = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}

// FormatWhen formata o início do evento como "quarta-feira, 05/11 às 19h30".
func FormatWhen(e entity.MeetupEvent) string {
	if !e.Scheduled() {
		return ""
	}
	t := e.Start.In(saoPaulo)
	hour := fmt.Sprintf("%dh", t.Hour())
	if t.Minute() != 0 {
		hour = fmt.Sprintf("%dh%02d", t.Hour(), t.Minute())
	}
	return fmt.Sprintf("%s, %s às %s", weekdays[t.Weekday()], t.Format("02/01"), hour)
}

func LeadWelcome(job entity.NotificationJob) (entity.EmailMessage, error) {
	data := LeadWelcomeData{
		Subject:       fmt.Sprintf("Recebemos seu contato, %s!", job.FirstName),
		FirstName:     job.FirstName,
		Company:       job.Company,
		PreferredTime: job.PreferredTime,
	}
	body, err := render("lead_welcome.html", data)
	if err != nil {
		return entity.EmailMessage{}, err
	}
	return entity.EmailMessage{To: job.Email, Subject: data.Subject, HTMLBody: body}, nil
}

// MeetupConfirmation anexa o convite quando houver um.
func MeetupConfirmation(to, firstName string, event entity.MeetupEvent, invite []byte) (entity.EmailMessage, error) {
	data := MeetupConfirmationData{
		Subject:   fmt.Sprintf("Inscrição confirmada: %s", event.Title),
		FirstName: firstName,
		Event:     event,
		When:      FormatWhen(event),
		HasInvite: len(invite) > 0,
	}
	body, err := render("meetup_confirmation.html", data)
	if err != nil {
		return entity.EmailMessage{}, err
	}

	msg := entity.EmailMessage{To: to, Subject: data.Subject, HTMLBody: body}
	if data.HasInvite {
		msg.Attachments = []entity.Attachment{{
			FileName:    "meetup.ics",
			ContentType: "text/calendar; method=REQUEST; charset=UTF-8",
			Content:     invite,
		}}
	}
	return msg, nil
}

func Reminder(t entity.ReminderType, to, firstName string, event entity.MeetupEvent) (entity.EmailMessage, error) {
	data := ReminderData{
		FirstName: firstName,
		Event:     event,
		When:      FormatWhen(event),
	}

	switch t {
	case entity.ReminderD7:
		data.Subject = fmt.Sprintf("Falta uma semana para o %s", event.Title)
		data.Headline = "Falta uma semana!"
		data.Body = "Separe um tempinho na agenda: o meetup de conversação em inglês acontece na semana que vem."
	case entity.ReminderD3:
		data.Subject = fmt.Sprintf("Faltam 3 dias para o %s", event.Title)
		data.Headline = "Faltam só 3 dias!"
		data.Body = "Estamos preparando tudo para receber você. Traga sua curiosidade e vontade de praticar."
	case entity.ReminderD1:
		data.Subject = fmt.Sprintf("É amanhã: %s", event.Title)
		data.Headline = "É amanhã!"
		data.Body = "Nos vemos amanhã. Chegue alguns minutos antes para garantir seu lugar."
	case entity.ReminderFollowup:
		data.Subject = fmt.Sprintf("Obrigado por participar do %s", event.Title)
		data.Headline = "Obrigado pela presença!"
		data.Body = "Foi ótimo ter você com a gente. Quer continuar evoluindo? Responda este email e um consultor apresenta nossos cursos."
		data.When = ""
	default:
		return entity.EmailMessage{}, fmt.Errorf("tipo de lembrete sem template: %q", t)
	}

	body, err := render("reminder.html", data)
	if err != nil {
		return entity.EmailMessage{}, err
	}
	return entity.EmailMessage{To: to, Subject: data.Subject, HTMLBody: body}, nil
}

func render(name string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("erro ao processar template %s: %w", name, err)
	}
	return strings.TrimSpace(body.String()), nil
}
