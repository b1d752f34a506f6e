package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
)

type RegisterMeetupOutput struct {
	ID                 string                              `json:"-"`
	Partial            bool                                `json:"partial"`
	IntegrationResults map[string]entity.IntegrationResult `json:"integrationResults"`
}

// RegisterMeetupUseCase executa as integrações do meetup em sequência e reporta cada uma.
// Só uma falha do CRM configurado aborta a inscrição.
type RegisterMeetupUseCase struct {
	CRM        CRMClient
	Notify     *NotifyUseCase
	Journal    entity.LeadRepositoryInterface // opcional
	Meetup     entity.MeetupEvent
	PipelineID string
	StageID    string
}

func NewRegisterMeetupUseCase(crm CRMClient, notify *NotifyUseCase, journal entity.LeadRepositoryInterface, meetup entity.MeetupEvent, pipelineID, stageID string) *RegisterMeetupUseCase {
	return &RegisterMeetupUseCase{
		CRM:        crm,
		Notify:     notify,
		Journal:    journal,
		Meetup:     meetup,
		PipelineID: pipelineID,
		StageID:    stageID,
	}
}

func (uc *RegisterMeetupUseCase) Execute(ctx context.Context, input entity.MeetupRegistration) (*RegisterMeetupOutput, error) {
	if strings.TrimSpace(input.Honeypot) != "" {
		zap.S().Warnf("🤖 Inscrição descartada: honeypot preenchido (%s)", input.Email)
		return nil, &DomainError{Code: ErrCodeSpamDetected, Message: "Requisição inválida"}
	}
	if err := validateContact(input, input.LGPDConsent, input.Phone); err != nil {
		return nil, err
	}

	contact := entity.NormalizeContact(input.Email, input.Phone)
	lead := &entity.Lead{
		ID:     uuid.NewString(),
		Source: entity.LeadSourceMeetup,
		Email:  contact.Email,
		Name:   input.FullName(),
		Phone:  contact.CRMPhone,
		CRMPayload: entity.CRMPayload{
			Contact: meetupContactProperties(input, contact),
			Deal:    meetupDealProperties(input, uc.Meetup, uc.PipelineID, uc.StageID),
		},
		CreatedAt: time.Now(),
	}

	job := entity.NotificationJob{
		ID:             lead.ID,
		Kind:           entity.NotificationMeetupRegistered,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          contact.Email,
		MessagingPhone: contact.MessagingPhone,
		PhoneDisplay:   entity.FormatPhoneDisplay(input.Phone),
		EnglishLevel:   input.EnglishLevel,
	}

	hubspot := Step{Name: StepHubSpot, Required: true, Fn: func(ctx context.Context) (string, error) {
		contactID, dealID, _, err := writeToCRM(ctx, uc.CRM, lead.CRMPayload)
		journalOutcome(ctx, uc.Journal, lead, contactID, dealID, err)
		return dealID, err
	}}
	if uc.CRM == nil || !uc.CRM.Configured() {
		hubspot.SkipReason = "hubspot não configurado"
	}

	plan := NewNotificationPlan()
	plan.Add(hubspot)
	if uc.Notify != nil {
		plan.Add(uc.Notify.Steps(job)...)
	}

	results, err := plan.Execute(ctx)
	out := &RegisterMeetupOutput{
		ID:                 lead.ID,
		Partial:            Partial(results),
		IntegrationResults: results,
	}
	if err != nil {
		return out, &TechnicalError{Code: ErrCodeCRMFailed, Message: "Não foi possível concluir sua inscrição agora", Err: err}
	}

	zap.S().Infof("✅ Inscrição no meetup %s concluída (parcial: %v)", lead.ID, out.Partial)
	return out, nil
}
