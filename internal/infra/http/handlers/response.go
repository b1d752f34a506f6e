package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
	"github.com/xavierca1/lead-intake/internal/usecase"
)

const maxBodyBytes = 64 << 10

type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// FailureResponse é o formato {ok:false} das rotas de meetup e lembretes.
type FailureResponse struct {
	OK                 bool                                `json:"ok"`
	Error              string                              `json:"error"`
	IntegrationResults map[string]entity.IntegrationResult `json:"integrationResults,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorf("❌ Erro ao escrever resposta: %v", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// decodeJSON lê no máximo maxBodyBytes em v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor traduz erros do usecase para HTTP: entrada do cliente 400, CRM ausente 503,
// falha do CRM 502, o resto 500.
func statusFor(err error) int {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		return http.StatusBadRequest
	}
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		switch te.Code {
		case usecase.ErrCodeCRMNotConfigured:
			return http.StatusServiceUnavailable
		case usecase.ErrCodeCRMFailed:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// publicMessage nunca expõe detalhes de erro de terceiros ao navegador.
func publicMessage(err error) (code, message string, fields map[string]string) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		return de.Code, de.Message, de.Fields
	}
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		return te.Code, te.Message, nil
	}
	return "INTERNAL_ERROR", "Erro interno, tente novamente", nil
}

// getClientIP usa o RemoteAddr, já reescrito pelo middleware RealIP do chi a partir de
// X-Forwarded-For / X-Real-IP.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return "unknown"
}
