package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xavierca1/lead-intake/internal/entity"
	"github.com/xavierca1/lead-intake/internal/infra/mail"
	"github.com/xavierca1/lead-intake/internal/infra/monitoring"
)

const (
	ChannelCRM      = "crm"
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

type SendRemindersOutput struct {
	Type    entity.ReminderType    `json:"type"`
	Summary entity.ReminderSummary `json:"summary"`
	Errors  []entity.ReminderError `json:"errors"`
}

// SendRemindersUseCase é o dispatcher de lembretes. Os negócios são processados um a um;
// a falha de um negócio é registrada e a execução segue.
type SendRemindersUseCase struct {
	Deals            DealStore
	Messaging        MessagingClient
	Email            EmailSender
	Meetup           entity.MeetupEvent
	PipelineID       string
	QualifiedStageID string
	FollowupStageID  string
	// Limiter controla o ritmo dos envios; nil não limita.
	Limiter *rate.Limiter
	// StrictFlags não marca a flag quando todos os canais tentados falharam ou nenhum canal
	// está configurado, e a próxima execução tenta o negócio de novo.
	StrictFlags bool
}

func NewSendRemindersUseCase(deals DealStore, messaging MessagingClient, email EmailSender, meetup entity.MeetupEvent, pipelineID, qualifiedStageID, followupStageID string, sendsPerSecond float64) *SendRemindersUseCase {
	var limiter *rate.Limiter
	if sendsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(sendsPerSecond), 1)
	}
	return &SendRemindersUseCase{
		Deals:            deals,
		Messaging:        messaging,
		Email:            email,
		Meetup:           meetup,
		PipelineID:       pipelineID,
		QualifiedStageID: qualifiedStageID,
		FollowupStageID:  followupStageID,
		Limiter:          limiter,
	}
}

type dealOutcome int

const (
	outcomeSent dealOutcome = iota
	outcomeFailed
	outcomeSkipped
)

func (uc *SendRemindersUseCase) Execute(ctx context.Context, t entity.ReminderType) (*SendRemindersOutput, error) {
	policy, ok := entity.PolicyFor(t)
	if !ok {
		return nil, &DomainError{Code: ErrCodeInvalidReminder, Message: fmt.Sprintf("Tipo de lembrete inválido: %q", t)}
	}
	if uc.Deals == nil || !uc.Deals.Configured() {
		return nil, &TechnicalError{Code: ErrCodeCRMNotConfigured, Message: "CRM não configurado"}
	}

	query := entity.ReminderQuery{
		PipelineID:  uc.PipelineID,
		StageID:     uc.QualifiedStageID,
		MissingFlag: policy.FlagProperty,
	}
	if t == entity.ReminderFollowup {
		query.StageID = uc.FollowupStageID
	}

	deals, err := uc.Deals.SearchDeals(ctx, query)
	if err != nil {
		monitoring.ReportIntegrationError(StepHubSpot, err, map[string]interface{}{"reminder": string(t)})
		return nil, &TechnicalError{Code: ErrCodeCRMFailed, Message: "Erro ao buscar negócios no CRM", Err: err}
	}

	zap.S().Infof("⏰ Lembretes %s: %d negócios elegíveis", t, len(deals))

	out := &SendRemindersOutput{Type: t, Errors: []entity.ReminderError{}}
	for _, deal := range deals {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		out.Summary.Total++
		switch uc.processDeal(ctx, policy, deal, out) {
		case outcomeSent:
			out.Summary.Sent++
		case outcomeFailed:
			out.Summary.Failed++
		case outcomeSkipped:
			out.Summary.Skipped++
		}
	}

	zap.S().Infof("✅ Lembretes %s: total=%d enviados=%d falhas=%d ignorados=%d",
		t, out.Summary.Total, out.Summary.Sent, out.Summary.Failed, out.Summary.Skipped)
	return out, nil
}

// processDeal envia pelos canais da política e marca a flag qualquer que seja o resultado:
// tentativa conta como envio. Com StrictFlags a flag só é marcada quando algum canal entregou
// ou quando o contato não tem endereço para nenhum canal configurado.
func (uc *SendRemindersUseCase) processDeal(ctx context.Context, policy entity.ReminderPolicy, deal entity.Deal, out *SendRemindersOutput) dealOutcome {
	record := func(channel string, err error) {
		out.Errors = append(out.Errors, entity.ReminderError{DealID: deal.ID, Channel: channel, Error: err.Error()})
	}

	contact, err := uc.Deals.GetDealContact(ctx, deal.ID)
	if err != nil {
		zap.S().Warnf("⚠️ Lembrete %s: negócio %s sem contato: %v", policy.Type, deal.ID, err)
		record(ChannelCRM, err)
		return outcomeFailed
	}

	email := entity.NormalizeEmail(contact.Email)
	phone := entity.ToMessagingPhone(contact.Phone)

	useEmail := policy.Email && uc.Email != nil && uc.Email.Configured()
	useWhatsApp := policy.WhatsApp && uc.Messaging != nil && uc.Messaging.Configured()
	if !useEmail && !useWhatsApp && uc.StrictFlags {
		// nada configurado para este tipo; uma execução futura ainda pode enviar
		return outcomeSkipped
	}

	attempted, delivered := 0, 0

	if useEmail && email != "" {
		attempted++
		if err := uc.sendEmail(ctx, policy.Type, email, contact.FirstName); err != nil {
			monitoring.ReportIntegrationError(ChannelEmail, err, map[string]interface{}{"deal": deal.ID})
			record(ChannelEmail, err)
		} else {
			delivered++
		}
	}

	if useWhatsApp && phone != "" {
		attempted++
		if err := uc.sendWhatsApp(ctx, policy, phone, contact.FirstName); err != nil {
			monitoring.ReportIntegrationError(ChannelWhatsApp, err, map[string]interface{}{"deal": deal.ID})
			record(ChannelWhatsApp, err)
		} else {
			delivered++
		}
	}

	outcome := outcomeSent
	switch {
	case attempted == 0:
		zap.S().Warnf("⚠️ Lembrete %s: nenhum canal disponível para o negócio %s", policy.Type, deal.ID)
		outcome = outcomeSkipped
	case delivered == 0:
		outcome = outcomeFailed
	}

	if outcome == outcomeFailed && uc.StrictFlags {
		return outcome
	}

	if policy.Gated() {
		if err := uc.Deals.UpdateDeal(ctx, deal.ID, map[string]string{policy.FlagProperty: "true"}); err != nil {
			zap.S().Errorf("❌ Lembrete %s: erro ao marcar negócio %s: %v", policy.Type, deal.ID, err)
			record(ChannelCRM, err)
		}
	}
	return outcome
}

func (uc *SendRemindersUseCase) sendEmail(ctx context.Context, t entity.ReminderType, to, firstName string) error {
	if err := uc.wait(ctx); err != nil {
		return err
	}
	msg, err := mail.Reminder(t, to, firstName, uc.Meetup)
	if err != nil {
		return err
	}
	return uc.Email.Send(ctx, msg)
}

func (uc *SendRemindersUseCase) sendWhatsApp(ctx context.Context, policy entity.ReminderPolicy, to, firstName string) error {
	if policy.Template == "" {
		return errors.New("tipo de lembrete sem template de whatsapp")
	}
	if err := uc.wait(ctx); err != nil {
		return err
	}
	params := []string{param(firstName)}
	if policy.Type != entity.ReminderFollowup {
		params = append(params, param(mail.FormatWhen(uc.Meetup)))
	}
	return uc.Messaging.SendTemplate(ctx, to, policy.Template, params)
}

func (uc *SendRemindersUseCase) wait(ctx context.Context) error {
	if uc.Limiter == nil {
		return nil
	}
	return uc.Limiter.Wait(ctx)
}
