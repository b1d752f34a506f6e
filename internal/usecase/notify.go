package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
	"github.com/xavierca1/lead-intake/internal/infra/mail"
)

const (
	StepHubSpot          = "hubspot"
	StepWhatsApp         = "whatsapp"
	StepWhatsAppInternal = "whatsapp_internal"
	StepEmail            = "email"
)

// WhatsApp templates aprovados na Meta.
const (
	TemplateLeadWelcome        = "lead_boas_vindas"
	TemplateLeadInternal       = "lead_novo_contato"
	TemplateMeetupConfirmation = "meetup_confirmacao"
	TemplateMeetupInternal     = "meetup_nova_inscricao"
)

// NotifyUseCase entrega as notificações best-effort que seguem a gravação no CRM.
type NotifyUseCase struct {
	Messaging      MessagingClient
	Email          EmailSender
	SalesRepNumber string
	Meetup         entity.MeetupEvent
	Organizer      string

	now func() time.Time
}

func NewNotifyUseCase(messaging MessagingClient, email EmailSender, salesRepNumber string, meetup entity.MeetupEvent, organizer string) *NotifyUseCase {
	return &NotifyUseCase{
		Messaging:      messaging,
		Email:          email,
		SalesRepNumber: salesRepNumber,
		Meetup:         meetup,
		Organizer:      organizer,
		now:            time.Now,
	}
}

// Process executa todas as notificações do job e reporta um resultado por canal.
func (uc *NotifyUseCase) Process(ctx context.Context, job entity.NotificationJob) (map[string]entity.IntegrationResult, error) {
	plan := NewNotificationPlan()
	plan.Add(uc.Steps(job)...)
	return plan.Execute(ctx)
}

// Steps monta os passos whatsapp, whatsapp_internal e email conforme o tipo do job.
func (uc *NotifyUseCase) Steps(job entity.NotificationJob) []Step {
	leadTemplate, internalTemplate := TemplateLeadWelcome, TemplateLeadInternal
	leadParams := []string{param(job.FirstName)}
	internalParams := []string{param(job.FullName()), param(job.PhoneDisplay), param(job.Email), param(job.Company), param(job.PreferredTime)}

	if job.Kind == entity.NotificationMeetupRegistered {
		leadTemplate, internalTemplate = TemplateMeetupConfirmation, TemplateMeetupInternal
		leadParams = []string{param(job.FirstName), param(mail.FormatWhen(uc.Meetup))}
		internalParams = []string{param(job.FullName()), param(job.PhoneDisplay), param(job.Email), param(job.EnglishLevel)}
	}

	whatsapp := Step{Name: StepWhatsApp, Fn: func(ctx context.Context) (string, error) {
		return "", uc.Messaging.SendTemplate(ctx, job.MessagingPhone, leadTemplate, leadParams)
	}}
	internal := Step{Name: StepWhatsAppInternal, Fn: func(ctx context.Context) (string, error) {
		return "", uc.Messaging.SendTemplate(ctx, uc.SalesRepNumber, internalTemplate, internalParams)
	}}
	email := Step{Name: StepEmail, Fn: func(ctx context.Context) (string, error) {
		msg, err := uc.composeEmail(job)
		if err != nil {
			return "", err
		}
		return "", uc.Email.Send(ctx, msg)
	}}

	switch {
	case uc.Messaging == nil || !uc.Messaging.Configured():
		whatsapp.SkipReason = "whatsapp não configurado"
		internal.SkipReason = "whatsapp não configurado"
	case job.MessagingPhone == "":
		whatsapp.SkipReason = "lead sem telefone"
	}
	if internal.SkipReason == "" && uc.SalesRepNumber == "" {
		internal.SkipReason = "WHATSAPP_SALES_REP_NUMBER não configurado"
	}
	if uc.Email == nil || !uc.Email.Configured() {
		email.SkipReason = "email não configurado"
	}

	return []Step{whatsapp, internal, email}
}

func (uc *NotifyUseCase) composeEmail(job entity.NotificationJob) (entity.EmailMessage, error) {
	if job.Kind != entity.NotificationMeetupRegistered {
		return mail.LeadWelcome(job)
	}

	var invite []byte
	if uc.Meetup.Scheduled() {
		ics, err := mail.BuildICS(uc.Meetup, uc.Organizer, job.Email, uc.now())
		if err != nil {
			return entity.EmailMessage{}, fmt.Errorf("erro ao gerar convite: %w", err)
		}
		invite = ics
	}
	return mail.MeetupConfirmation(job.Email, job.FirstName, uc.Meetup, invite)
}

// param nunca deixa parâmetro de template vazio; a Cloud API rejeita parâmetros em branco.
func param(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// InlineNotifier executa as notificações numa goroutine deste processo.
// Usado quando não há fila configurada.
type InlineNotifier struct {
	process func(context.Context, entity.NotificationJob) (map[string]entity.IntegrationResult, error)
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewInlineNotifier(uc *NotifyUseCase, timeout time.Duration) *InlineNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &InlineNotifier{process: uc.Process, timeout: timeout}
}

func (n *InlineNotifier) Dispatch(ctx context.Context, job entity.NotificationJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	// o contexto da requisição é cancelado assim que a resposta é escrita
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()

		results, _ := n.process(bg, job)
		if Partial(results) {
			zap.S().Warnf("⚠️ Notificações do lead %s concluídas com falhas: %+v", job.ID, results)
			return
		}
		zap.S().Infof("✅ Notificações do lead %s enviadas", job.ID)
	}()
	return nil
}

// Wait bloqueia até todos os jobs despachados terminarem. Chamado no shutdown.
func (n *InlineNotifier) Wait() {
	n.wg.Wait()
}
