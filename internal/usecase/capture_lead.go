package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
)

type CaptureLeadOutput struct {
	ID           string `json:"id"`
	ContactID    string `json:"contactId"`
	DealID       string `json:"dealId"`
	IsNewContact bool   `json:"isNewContact"`
}

// CaptureLeadUseCase grava o lead do formulário do site no CRM e dispara as notificações.
type CaptureLeadUseCase struct {
	CRM        CRMClient
	Notifier   Notifier
	Journal    entity.LeadRepositoryInterface // opcional
	PipelineID string
	StageID    string
}

func NewCaptureLeadUseCase(crm CRMClient, notifier Notifier, journal entity.LeadRepositoryInterface, pipelineID, stageID string) *CaptureLeadUseCase {
	return &CaptureLeadUseCase{
		CRM:        crm,
		Notifier:   notifier,
		Journal:    journal,
		PipelineID: pipelineID,
		StageID:    stageID,
	}
}

func (uc *CaptureLeadUseCase) Execute(ctx context.Context, input entity.LeadSubmission) (*CaptureLeadOutput, error) {
	if err := validateContact(input, input.Consent, input.Phone); err != nil {
		return nil, err
	}

	if uc.CRM == nil || !uc.CRM.Configured() {
		zap.S().Error("❌ HubSpot: HUBSPOT_API_KEY não configurada, lead não pode ser gravado")
		return nil, &TechnicalError{Code: ErrCodeCRMNotConfigured, Message: "CRM não configurado"}
	}

	contact := entity.NormalizeContact(input.Email, input.Phone)
	lead := &entity.Lead{
		ID:     uuid.NewString(),
		Source: entity.LeadSourceWebsite,
		Email:  contact.Email,
		Name:   input.FullName(),
		Phone:  contact.CRMPhone,
		CRMPayload: entity.CRMPayload{
			Contact: leadContactProperties(input, contact),
			Deal:    leadDealProperties(input, uc.PipelineID, uc.StageID),
		},
		CreatedAt: time.Now(),
	}

	contactID, dealID, isNew, err := writeToCRM(ctx, uc.CRM, lead.CRMPayload)
	journalOutcome(ctx, uc.Journal, lead, contactID, dealID, err)
	if err != nil {
		return nil, &TechnicalError{Code: ErrCodeCRMFailed, Message: "Não foi possível registrar seu contato agora", Err: err}
	}

	zap.S().Infof("✅ Lead %s gravado no CRM (contato %s, negócio %s)", lead.ID, contactID, dealID)

	job := entity.NotificationJob{
		ID:             lead.ID,
		Kind:           entity.NotificationLeadCaptured,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          contact.Email,
		MessagingPhone: contact.MessagingPhone,
		PhoneDisplay:   entity.FormatPhoneDisplay(input.Phone),
		Company:        input.Company,
		Role:           input.Role,
		PreferredTime:  input.PreferredTime,
		CRMDealID:      dealID,
	}
	if uc.Notifier != nil {
		if err := uc.Notifier.Dispatch(ctx, job); err != nil {
			zap.S().Warnf("⚠️ Falha ao agendar notificações do lead %s: %v", lead.ID, err)
		}
	}

	return &CaptureLeadOutput{
		ID:           lead.ID,
		ContactID:    contactID,
		DealID:       dealID,
		IsNewContact: isNew,
	}, nil
}

// writeToCRM faz o upsert do contato e a criação do negócio de cada envio.
func writeToCRM(ctx context.Context, crm CRMClient, payload entity.CRMPayload) (contactID, dealID string, isNew bool, err error) {
	res, err := crm.UpsertContact(ctx, payload.Contact)
	if err != nil {
		return "", "", false, err
	}
	dealID, err = crm.CreateDeal(ctx, payload.Deal, res.ID)
	if err != nil {
		return res.ID, dealID, res.IsNew, err
	}
	return res.ID, dealID, res.IsNew, nil
}

// journalOutcome registra o envio; erros do journal só vão para o log.
func journalOutcome(ctx context.Context, journal entity.LeadRepositoryInterface, lead *entity.Lead, contactID, dealID string, crmErr error) {
	if journal == nil {
		return
	}

	lead.CRMContactID = contactID
	lead.CRMDealID = dealID
	lead.Attempts = 1
	lead.Status = entity.LeadStatusSynced
	if crmErr != nil {
		lead.Status = entity.LeadStatusCRMFailed
		lead.LastError = crmErr.Error()
	}

	if err := journal.Save(context.WithoutCancel(ctx), lead); err != nil {
		zap.S().Errorf("❌ Erro ao registrar lead %s no journal: %v", lead.ID, err)
	}
}
