package usecase

import (
	"context"

	"github.com/xavierca1/lead-intake/internal/entity"
)

type CRMClient interface {
	Configured() bool
	UpsertContact(ctx context.Context, props map[string]string) (entity.UpsertResult, error)
	CreateDeal(ctx context.Context, props map[string]string, contactID string) (string, error)
}

// DealStore é a parte do CRM usada pelo dispatcher de lembretes.
type DealStore interface {
	Configured() bool
	SearchDeals(ctx context.Context, q entity.ReminderQuery) ([]entity.Deal, error)
	GetDealContact(ctx context.Context, dealID string) (*entity.CRMContact, error)
	UpdateDeal(ctx context.Context, dealID string, props map[string]string) error
}

type MessagingClient interface {
	Configured() bool
	SendTemplate(ctx context.Context, to, templateName string, params []string) error
}

type EmailSender interface {
	Configured() bool
	Send(ctx context.Context, msg entity.EmailMessage) error
}

// Notifier repassa um NotificationJob para entrega best-effort. Dispatch não pode bloquear
// esperando as entregas.
type Notifier interface {
	Dispatch(ctx context.Context, job entity.NotificationJob) error
}
