package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/xavierca1/lead-intake/internal/entity"
	"github.com/xavierca1/lead-intake/internal/infra/http/middleware"
	"github.com/xavierca1/lead-intake/internal/infra/ratelimit"
	"github.com/xavierca1/lead-intake/internal/usecase"
)

type LeadCapturer interface {
	Execute(ctx context.Context, input entity.LeadSubmission) (*usecase.CaptureLeadOutput, error)
}

type LeadHandler struct {
	uc          LeadCapturer
	rateLimiter ratelimit.Limiter
	limits      ratelimit.Options
}

func NewLeadHandler(uc LeadCapturer, limiter ratelimit.Limiter, limits ratelimit.Options) *LeadHandler {
	return &LeadHandler{
		uc:          uc,
		rateLimiter: limiter,
		limits:      limits,
	}
}

type CaptureLeadResponse struct {
	Success bool `json:"success"`
}

// CaptureLead (POST /api/lead)
func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	if !checkRateLimit(w, r, h.rateLimiter, "lead", h.limits) {
		writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "Muitas requisições. Tente novamente em instantes.")
		return
	}

	var input entity.LeadSubmission
	if err := decodeJSON(w, r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.ErrCodeInvalidPayload, "JSON inválido")
		return
	}

	if _, err := h.uc.Execute(r.Context(), input); err != nil {
		code, message, fields := publicMessage(err)
		writeJSON(w, statusFor(err), ErrorResponse{Error: message, Code: code, Fields: fields})
		return
	}

	middleware.RecordLeadCaptured(strings.ToLower(entity.LeadSourceWebsite))
	writeJSON(w, http.StatusCreated, CaptureLeadResponse{Success: true})
}
