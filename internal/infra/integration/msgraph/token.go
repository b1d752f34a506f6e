package msgraph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultAuthority = "https://login.microsoftonline.com"
	graphScope       = "https://graph.microsoft.com/.default"

	// token com menos que isso de validade conta como expirado
	expirySkew = 60 * time.Second
)

var ErrNotConfigured = errors.New("microsoft graph não configurado")

// TokenSource troca client credentials por um access token e mantém o token em cache
// enquanto ele tiver mais de um minuto de validade. Uma instância por processo.
type TokenSource struct {
	configured bool
	config     clientcredentials.Config
	http       *http.Client

	mu     sync.Mutex
	source oauth2.TokenSource
	last   *oauth2.Token

	group singleflight.Group
}

func NewTokenSource(clientID, clientSecret, tenantID, authority string) *TokenSource {
	if authority == "" {
		authority = DefaultAuthority
	}
	s := &TokenSource{
		configured: clientID != "" && clientSecret != "" && tenantID != "",
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(authority, "/"), url.PathEscape(tenantID)),
			Scopes:       []string{graphScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		http: &http.Client{Timeout: 10 * time.Second},
	}
	s.source = s.newSource()
	return s
}

// newSource monta a fonte com cache. A busca roda num contexto próprio limitado pelo timeout
// do http client; um chamador que desiste não derruba os outros.
func (s *TokenSource) newSource() oauth2.TokenSource {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, s.http)
	return oauth2.ReuseTokenSourceWithExpiry(nil, s.config.TokenSource(ctx), expirySkew)
}

func (s *TokenSource) Configured() bool {
	return s != nil && s.configured
}

// Token devolve o token em cache ou busca um novo. Chamadas concorrentes dividem a mesma
// busca; ctx só limita quanto tempo este chamador espera.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	ch := s.group.DoChan("token", func() (interface{}, error) {
		return s.fetch()
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ExpiresAt diz quando o token em cache expira; zero sem token em cache.
func (s *TokenSource) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return time.Time{}
	}
	return s.last.Expiry
}

// Invalidate descarta o token em cache, ex: depois de um 401 do Graph.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.source = s.newSource()
	s.last = nil
	s.mu.Unlock()
}

func (s *TokenSource) fetch() (string, error) {
	s.mu.Lock()
	src := s.source
	s.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("erro ao obter token do graph: %w", err)
	}

	s.mu.Lock()
	fresh := s.last == nil || s.last.AccessToken != tok.AccessToken
	// um Invalidate durante a busca prevalece
	if s.source == src {
		s.last = tok
	}
	s.mu.Unlock()

	if fresh {
		zap.S().Infof("🔑 Graph: Novo token obtido, expira em %s", time.Until(tok.Expiry).Round(time.Second))
	}
	return tok.AccessToken, nil
}
