package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
)

const searchPageSize = 100

var contactReadProperties = []string{"email", "firstname", "lastname", "phone"}

// StatusError é devolvido para qualquer resposta não-2xx do HubSpot.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hubspot status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// UpsertContact busca o contato pelo email e atualiza, ou cria um novo.
func (c *Client) UpsertContact(ctx context.Context, props map[string]string) (entity.UpsertResult, error) {
	email := props["email"]
	if email == "" {
		return entity.UpsertResult{}, errors.New("hubspot: email é obrigatório para upsert")
	}

	existing, err := c.findContactByEmail(ctx, email)
	if err != nil {
		return entity.UpsertResult{}, fmt.Errorf("erro ao buscar contato: %w", err)
	}

	if existing != "" {
		if err := c.do(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+existing, objectInput{Properties: props}, nil); err != nil {
			return entity.UpsertResult{}, fmt.Errorf("erro ao atualizar contato %s: %w", existing, err)
		}
		zap.S().Infof("📇 HubSpot: Contato existente atualizado: %s", existing)
		return entity.UpsertResult{ID: existing}, nil
	}

	var created object
	err = c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts", objectInput{Properties: props}, &created)

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
		// criado em paralelo entre a busca e a criação
		existing, findErr := c.findContactByEmail(ctx, email)
		if findErr != nil || existing == "" {
			return entity.UpsertResult{}, fmt.Errorf("erro ao criar contato: %w", err)
		}
		if err := c.do(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+existing, objectInput{Properties: props}, nil); err != nil {
			return entity.UpsertResult{}, fmt.Errorf("erro ao atualizar contato %s: %w", existing, err)
		}
		return entity.UpsertResult{ID: existing}, nil
	}
	if err != nil {
		return entity.UpsertResult{}, fmt.Errorf("erro ao criar contato: %w", err)
	}

	zap.S().Infof("✅ HubSpot: Novo contato criado: %s", created.ID)
	return entity.UpsertResult{ID: created.ID, IsNew: true}, nil
}

// CreateDeal cria o negócio e associa ao contato.
func (c *Client) CreateDeal(ctx context.Context, props map[string]string, contactID string) (string, error) {
	var created object
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/deals", objectInput{Properties: props}, &created); err != nil {
		return "", fmt.Errorf("erro ao criar negócio: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("negócio não criado")
	}

	path := fmt.Sprintf("/crm/v4/objects/deals/%s/associations/default/contacts/%s", created.ID, contactID)
	if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return created.ID, fmt.Errorf("negócio %s criado mas associação falhou: %w", created.ID, err)
	}

	zap.S().Infof("✅ HubSpot: Negócio #%s criado para contato %s", created.ID, contactID)
	return created.ID, nil
}

// SearchDeals pagina por todos os negócios do estágio do pipeline. Com MissingFlag, negócios
// com a flag já em "true" são filtrados pelo próprio HubSpot.
func (c *Client) SearchDeals(ctx context.Context, q entity.ReminderQuery) ([]entity.Deal, error) {
	base := []filter{
		{PropertyName: "pipeline", Operator: "EQ", Value: q.PipelineID},
		{PropertyName: "dealstage", Operator: "EQ", Value: q.StageID},
	}

	groups := []filterGroup{{Filters: base}}
	properties := []string{"dealname", "dealstage", "pipeline"}
	if q.MissingFlag != "" {
		groups = []filterGroup{
			{Filters: append(append([]filter{}, base...), filter{PropertyName: q.MissingFlag, Operator: "NOT_HAS_PROPERTY"})},
			{Filters: append(append([]filter{}, base...), filter{PropertyName: q.MissingFlag, Operator: "NEQ", Value: "true"})},
		}
		properties = append(properties, q.MissingFlag)
	}

	seen := make(map[string]struct{})
	var deals []entity.Deal
	after := ""

	for {
		req := searchRequest{
			FilterGroups: groups,
			Properties:   properties,
			Limit:        searchPageSize,
			After:        after,
		}

		var resp searchResponse
		if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/deals/search", req, &resp); err != nil {
			return nil, fmt.Errorf("erro ao buscar negócios: %w", err)
		}

		for _, r := range resp.Results {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			// índice de busca pode estar defasado
			if q.MissingFlag != "" && strings.EqualFold(r.Properties[q.MissingFlag], "true") {
				continue
			}
			seen[r.ID] = struct{}{}
			deals = append(deals, entity.Deal{
				ID:         r.ID,
				Name:       r.Properties["dealname"],
				Stage:      r.Properties["dealstage"],
				Properties: r.Properties,
			})
		}

		if resp.Paging == nil || resp.Paging.Next == nil || resp.Paging.Next.After == "" {
			break
		}
		after = resp.Paging.Next.After
	}

	return deals, nil
}

// GetDealContact busca o primeiro contato associado ao negócio.
func (c *Client) GetDealContact(ctx context.Context, dealID string) (*entity.CRMContact, error) {
	var assoc associationsResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/crm/v4/objects/deals/%s/associations/contacts", dealID), nil, &assoc); err != nil {
		return nil, fmt.Errorf("erro ao buscar associações do negócio %s: %w", dealID, err)
	}
	if len(assoc.Results) == 0 {
		return nil, fmt.Errorf("negócio %s sem contato associado", dealID)
	}

	contactID := strconv.FormatInt(assoc.Results[0].ToObjectID, 10)
	path := fmt.Sprintf("/crm/v3/objects/contacts/%s?properties=%s", contactID, strings.Join(contactReadProperties, ","))

	var contact object
	if err := c.do(ctx, http.MethodGet, path, nil, &contact); err != nil {
		return nil, fmt.Errorf("erro ao buscar contato %s: %w", contactID, err)
	}

	return &entity.CRMContact{
		ID:        contact.ID,
		FirstName: contact.Properties["firstname"],
		LastName:  contact.Properties["lastname"],
		Email:     contact.Properties["email"],
		Phone:     contact.Properties["phone"],
	}, nil
}

func (c *Client) UpdateDeal(ctx context.Context, dealID string, props map[string]string) error {
	if err := c.do(ctx, http.MethodPatch, "/crm/v3/objects/deals/"+dealID, objectInput{Properties: props}, nil); err != nil {
		return fmt.Errorf("erro ao atualizar negócio %s: %w", dealID, err)
	}
	return nil
}

// Ping valida a API key num endpoint barato.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/crm/v3/objects/contacts?limit=1", nil, nil)
}

func (c *Client) findContactByEmail(ctx context.Context, email string) (string, error) {
	req := searchRequest{
		FilterGroups: []filterGroup{{Filters: []filter{{PropertyName: "email", Operator: "EQ", Value: email}}}},
		Properties:   []string{"email"},
		Limit:        1,
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if !c.Configured() {
		return errors.New("hubspot não configurado")
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("erro ao serializar payload: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	c.addAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("erro de comunicação com hubspot: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("erro ao ler resposta hubspot: %w", err)
	}
	return nil
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
