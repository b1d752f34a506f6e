package msgraph

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
)

const DefaultGraphURL = "https://graph.microsoft.com"

// Client envia emails pela conta MS_FROM_ADDRESS via Graph sendMail.
type Client struct {
	from     string
	graphURL string
	tokens   *TokenSource
	http     *http.Client
}

func NewClient(from string, tokens *TokenSource, graphURL string) *Client {
	if graphURL == "" {
		graphURL = DefaultGraphURL
	}
	return &Client{
		from:     from,
		graphURL: strings.TrimRight(graphURL, "/"),
		tokens:   tokens,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.from != "" && c.tokens.Configured()
}

func (c *Client) Send(ctx context.Context, msg entity.EmailMessage) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if msg.To == "" {
		return errors.New("graph: destinatário vazio")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	payload := sendMailRequest{
		Message: message{
			Subject:      msg.Subject,
			Body:         itemBody{ContentType: "HTML", Content: msg.HTMLBody},
			ToRecipients: []recipient{{EmailAddress: emailAddress{Address: msg.To}}},
		},
		SaveToSentItems: true,
	}
	for _, a := range msg.Attachments {
		payload.Message.Attachments = append(payload.Message.Attachments, attachment{
			ODataType:    "#microsoft.graph.fileAttachment",
			Name:         a.FileName,
			ContentType:  a.ContentType,
			ContentBytes: base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("graph: erro ao serializar email: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1.0/users/%s/sendMail", c.graphURL, url.PathEscape(c.from))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graph: erro ao enviar email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate()
		}
		var ge graphError
		if json.Unmarshal(respBody, &ge) == nil && ge.Error.Message != "" {
			return fmt.Errorf("graph sendMail status %d: %s (%s)", resp.StatusCode, ge.Error.Message, ge.Error.Code)
		}
		return fmt.Errorf("graph sendMail status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	zap.S().Infof("📧 Graph: Email \"%s\" enviado para %s", msg.Subject, msg.To)
	return nil
}
