package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("whatsapp não configurado")

type Client struct {
	accessToken  string
	phoneID      string
	baseURL      string
	languageCode string
	http         *http.Client
}

func NewClient(accessToken, phoneID, baseURL, languageCode string) *Client {
	if languageCode == "" {
		languageCode = "pt_BR"
	}
	return &Client{
		accessToken:  accessToken,
		phoneID:      phoneID,
		baseURL:      strings.TrimRight(baseURL, "/"),
		languageCode: languageCode,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.accessToken != "" && c.phoneID != ""
}

// SendTemplate envia uma mensagem de template aprovada. Uma tentativa só, sem retry.
func (c *Client) SendTemplate(ctx context.Context, to, templateName string, params []string) error {
	return c.SendMessage(ctx, SendMessageInput{
		PhoneNumber:  to,
		TemplateName: templateName,
		Parameters:   params,
	})
}

func (c *Client) SendMessage(ctx context.Context, input SendMessageInput) error {
	if !c.Configured() {
		zap.S().Warn("⚠️ WhatsApp: ACCESS_TOKEN ou PHONE_NUMBER_ID não configurados")
		return ErrNotConfigured
	}
	if input.PhoneNumber == "" {
		return errors.New("whatsapp: destinatário vazio")
	}

	msg := templateMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               input.PhoneNumber,
		Type:             "template",
		Template: template{
			Name:     input.TemplateName,
			Language: language{Code: c.languageCode},
		},
	}
	if len(input.Parameters) > 0 {
		msg.Template.Components = []component{{
			Type:       "body",
			Parameters: convertParametersToAPI(input.Parameters),
		}}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("whatsapp: erro ao serializar payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: erro ao criar requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: erro ao enviar mensagem: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var result SendMessageResponse
	_ = json.Unmarshal(respBody, &result)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if result.Error != nil {
			return fmt.Errorf("whatsapp api error %d: %s (code %d)", resp.StatusCode, result.Error.Message, result.Error.Code)
		}
		return fmt.Errorf("whatsapp api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if result.Error != nil {
		return fmt.Errorf("whatsapp: %s", result.Error.Message)
	}

	zap.S().Infof("✅ WhatsApp: Template %s enviado para %s", input.TemplateName, input.PhoneNumber)
	return nil
}

func convertParametersToAPI(params []string) []parameter {
	result := make([]parameter, 0, len(params))
	for _, p := range params {
		result = append(result, parameter{Type: "text", Text: p})
	}
	return result
}
