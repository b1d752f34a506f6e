package entity

const (
	NotificationLeadCaptured     = "LEAD_CAPTURED"
	NotificationMeetupRegistered = "MEETUP_REGISTERED"
)

// NotificationJob leva o que as notificações best-effort precisam depois da gravação no CRM.
// Trafega pelo RabbitMQ quando a fila está ligada, então precisa serializar em JSON.
type NotificationJob struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	MessagingPhone string `json:"messaging_phone"`
	PhoneDisplay   string `json:"phone_display"`
	Company        string `json:"company,omitempty"`
	Role           string `json:"role,omitempty"`
	PreferredTime  string `json:"preferred_time,omitempty"`
	EnglishLevel   string `json:"english_level,omitempty"`
	CRMDealID      string `json:"crm_deal_id,omitempty"`
}

func (j NotificationJob) FullName() string {
	return joinName(j.FirstName, j.LastName)
}
