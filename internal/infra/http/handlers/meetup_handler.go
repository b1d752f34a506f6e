package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/xavierca1/lead-intake/internal/entity"
	"github.com/xavierca1/lead-intake/internal/infra/http/middleware"
	"github.com/xavierca1/lead-intake/internal/infra/ratelimit"
	"github.com/xavierca1/lead-intake/internal/usecase"
)

type MeetupRegistrar interface {
	Execute(ctx context.Context, input entity.MeetupRegistration) (*usecase.RegisterMeetupOutput, error)
}

type MeetupHandler struct {
	uc          MeetupRegistrar
	rateLimiter ratelimit.Limiter
	limits      ratelimit.Options
}

func NewMeetupHandler(uc MeetupRegistrar, limiter ratelimit.Limiter, limits ratelimit.Options) *MeetupHandler {
	return &MeetupHandler{uc: uc, rateLimiter: limiter, limits: limits}
}

type MeetupResponse struct {
	OK                 bool                                `json:"ok"`
	Partial            bool                                `json:"partial"`
	IntegrationResults map[string]entity.IntegrationResult `json:"integrationResults"`
}

func meetupError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, FailureResponse{OK: false, Error: message})
}

// Register (POST /api/register-meetup)
func (h *MeetupHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		meetupError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	if !checkRateLimit(w, r, h.rateLimiter, "meetup", h.limits) {
		meetupError(w, http.StatusTooManyRequests, "Muitas tentativas. Aguarde um minuto e tente novamente.")
		return
	}

	var input entity.MeetupRegistration
	if err := decodeJSON(w, r, &input); err != nil {
		meetupError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	out, err := h.uc.Execute(r.Context(), input)
	if err != nil {
		_, message, _ := publicMessage(err)
		resp := FailureResponse{OK: false, Error: message}

		var te *usecase.TechnicalError
		if errors.As(err, &te) && out != nil {
			resp.IntegrationResults = out.IntegrationResults
		}
		writeJSON(w, statusFor(err), resp)
		return
	}

	if res := out.IntegrationResults[usecase.StepHubSpot]; res.OK {
		middleware.RecordLeadCaptured(strings.ToLower(entity.LeadSourceMeetup))
	}

	writeJSON(w, http.StatusOK, MeetupResponse{
		OK:                 true,
		Partial:            out.Partial,
		IntegrationResults: out.IntegrationResults,
	})
}
