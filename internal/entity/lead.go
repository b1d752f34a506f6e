package entity

import (
	"context"
	"time"
)

const (
	LeadSourceWebsite = "WEBSITE"
	LeadSourceMeetup  = "MEETUP"

	LeadStatusSynced    = "SYNCED"
	LeadStatusCRMFailed = "CRM_FAILED"
)

// UTM carrega os parâmetros de atribuição repassados pela landing page.
type UTM struct {
	Source   string `json:"utm_source,omitempty" validate:"omitempty,max=255"`
	Medium   string `json:"utm_medium,omitempty" validate:"omitempty,max=255"`
	Campaign string `json:"utm_campaign,omitempty" validate:"omitempty,max=255"`
	Term     string `json:"utm_term,omitempty" validate:"omitempty,max=255"`
	Content  string `json:"utm_content,omitempty" validate:"omitempty,max=255"`
}

// LeadSubmission é o payload do formulário de contato do site.
type LeadSubmission struct {
	FirstName     string `json:"firstName" validate:"required,min=2,max=100"`
	LastName      string `json:"lastName" validate:"required,min=1,max=100"`
	Email         string `json:"email" validate:"required,leademail"`
	Phone         string `json:"phone" validate:"required,max=30"`
	Company       string `json:"company,omitempty" validate:"omitempty,max=200"`
	Role          string `json:"role,omitempty" validate:"omitempty,max=100"`
	PreferredTime string `json:"preferredTime,omitempty" validate:"omitempty,max=100"`
	Consent       bool   `json:"consent"`
	UTM
}

func (s LeadSubmission) FullName() string {
	return joinName(s.FirstName, s.LastName)
}

// Lead é o registro do journal de cada envio que chegou à etapa do CRM.
type Lead struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"` // WEBSITE, MEETUP
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Status       string     `json:"status"` // SYNCED, CRM_FAILED
	CRMPayload   CRMPayload `json:"crm_payload"`
	CRMContactID string     `json:"crm_contact_id,omitempty"`
	CRMDealID    string     `json:"crm_deal_id,omitempty"`
	Attempts     int        `json:"attempts"`
	LastError    string     `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CRMPayload é tudo que é preciso para refazer a gravação no CRM de um envio.
type CRMPayload struct {
	Contact map[string]string `json:"contact"`
	Deal    map[string]string `json:"deal"`
}

type LeadRepositoryInterface interface {
	Save(ctx context.Context, lead *Lead) error
	MarkSynced(ctx context.Context, id, contactID, dealID string) error
	MarkFailed(ctx context.Context, id string, cause error) error
	ListPendingSync(ctx context.Context, maxAttempts, limit int) ([]*Lead, error)
}
