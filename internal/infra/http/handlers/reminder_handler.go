package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
	"github.com/xavierca1/lead-intake/internal/infra/http/middleware"
	"github.com/xavierca1/lead-intake/internal/usecase"
)

type ReminderSender interface {
	Execute(ctx context.Context, t entity.ReminderType) (*usecase.SendRemindersOutput, error)
}

type ReminderHandler struct {
	uc         ReminderSender
	cronSecret string
}

func NewReminderHandler(uc ReminderSender, cronSecret string) *ReminderHandler {
	return &ReminderHandler{uc: uc, cronSecret: cronSecret}
}

type ReminderResponse struct {
	OK      bool                   `json:"ok"`
	Type    entity.ReminderType    `json:"type"`
	Summary entity.ReminderSummary `json:"summary"`
	Errors  []entity.ReminderError `json:"errors"`
}

type reminderRequest struct {
	Type string `json:"type"`
}

// Send (POST /api/send-reminders), chamado pelo cron com Authorization: Bearer CRON_SECRET.
func (h *ReminderHandler) Send(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		zap.S().Warnf("🔒 Lembretes: requisição não autorizada de %s", getClientIP(r))
		writeJSON(w, http.StatusUnauthorized, FailureResponse{OK: false, Error: "Unauthorized"})
		return
	}

	var req reminderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, FailureResponse{OK: false, Error: "JSON inválido"})
			return
		}
	}
	if req.Type == "" {
		req.Type = r.URL.Query().Get("type")
	}

	t, err := entity.ParseReminderType(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, FailureResponse{OK: false, Error: "type deve ser d7, d3, d1 ou followup"})
		return
	}

	out, err := h.uc.Execute(r.Context(), t)
	if err != nil {
		_, message, _ := publicMessage(err)
		writeJSON(w, statusFor(err), FailureResponse{OK: false, Error: message})
		return
	}

	middleware.RecordReminderSummary(string(t), out.Summary.Sent, out.Summary.Failed, out.Summary.Skipped)
	writeJSON(w, http.StatusOK, ReminderResponse{
		OK:      true,
		Type:    out.Type,
		Summary: out.Summary,
		Errors:  out.Errors,
	})
}

// authorized compara em tempo constante. Sem CRON_SECRET tudo é recusado.
func (h *ReminderHandler) authorized(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.cronSecret)) == 1
}
