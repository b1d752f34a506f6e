package entity

// CRMContact é o recorte do contato do CRM que os fluxos leem de volta.
type CRMContact struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type Deal struct {
	ID         string
	Name       string
	Stage      string
	Properties map[string]string
}

type UpsertResult struct {
	ID    string
	IsNew bool
}

// IntegrationResult registra o resultado de um efeito colateral best-effort.
type IntegrationResult struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Succeeded(id string) IntegrationResult {
	return IntegrationResult{OK: true, ID: id}
}

func Skipped(reason string) IntegrationResult {
	return IntegrationResult{Skipped: true, Error: reason}
}

func Failed(err error) IntegrationResult {
	return IntegrationResult{Error: err.Error()}
}

// Attachment é um arquivo anexado a um email.
type Attachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

type EmailMessage struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}
