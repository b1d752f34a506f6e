package app

import (
	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/config"
	"github.com/xavierca1/lead-intake/internal/infra/integration/hubspot"
	"github.com/xavierca1/lead-intake/internal/infra/integration/msgraph"
	"github.com/xavierca1/lead-intake/internal/infra/integration/whatsapp"
	"github.com/xavierca1/lead-intake/internal/infra/mail"
	"github.com/xavierca1/lead-intake/internal/usecase"
)

// Integrations são os clientes externos compartilhados pela API e pelo leadctl.
type Integrations struct {
	HubSpot  *hubspot.Client
	WhatsApp *whatsapp.Client
	Graph    *msgraph.TokenSource
	Email    usecase.EmailSender
	// EmailProvider é "msgraph", "smtp" ou "" com email desligado.
	EmailProvider string
	Organizer     string
}

func NewIntegrations(cfg *config.Config) *Integrations {
	in := &Integrations{
		HubSpot:  hubspot.NewClient(cfg.HubSpot.APIKey, cfg.HubSpot.BaseURL),
		WhatsApp: whatsapp.NewClient(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.BaseURL, cfg.WhatsApp.TemplateLanguage),
		Graph:    msgraph.NewTokenSource(cfg.Graph.ClientID, cfg.Graph.ClientSecret, cfg.Graph.TenantID, ""),
	}

	switch {
	case cfg.Graph.Configured():
		in.Email = msgraph.NewClient(cfg.Graph.FromAddress, in.Graph, "")
		in.EmailProvider = "msgraph"
		in.Organizer = cfg.Graph.FromAddress
	case cfg.SMTP.Configured():
		in.Email = mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
		in.EmailProvider = "smtp"
		in.Organizer = cfg.SMTP.From
		zap.S().Info("📧 Email via SMTP (Graph não configurado)")
	default:
		// Configured() false: todo passo de email é pulado
		in.Email = msgraph.NewClient("", in.Graph, "")
	}

	if !in.HubSpot.Configured() {
		zap.S().Warn("⚠️ HUBSPOT_API_KEY não configurada: leads não serão gravados no CRM")
	}
	if !in.WhatsApp.Configured() {
		zap.S().Warn("⚠️ WhatsApp não configurado: mensagens serão ignoradas")
	}
	if in.EmailProvider == "" {
		zap.S().Warn("⚠️ Email não configurado: envios serão ignorados")
	}
	return in
}

func (in *Integrations) Reminders(cfg *config.Config) *usecase.SendRemindersUseCase {
	uc := usecase.NewSendRemindersUseCase(
		in.HubSpot,
		in.WhatsApp,
		in.Email,
		cfg.Meetup,
		cfg.HubSpot.PipelineID,
		cfg.HubSpot.QualifiedStageID,
		cfg.HubSpot.FollowupStageID,
		cfg.ReminderSendsPerSecond,
	)
	uc.StrictFlags = cfg.ReminderStrictFlags
	return uc
}

func (in *Integrations) Notify(cfg *config.Config) *usecase.NotifyUseCase {
	return usecase.NewNotifyUseCase(in.WhatsApp, in.Email, cfg.WhatsApp.SalesRepNumber, cfg.Meetup, in.Organizer)
}
