package handlers

import (
	"net/http"

	"github.com/xavierca1/lead-intake/internal/entity"
)

// ValidationHandler permite aos formulários checar email e telefone antes do envio.
type ValidationHandler struct{}

func NewValidationHandler() *ValidationHandler {
	return &ValidationHandler{}
}

type ValidateContactResponse struct {
	Valid        bool              `json:"valid"`
	Fields       map[string]string `json:"fields,omitempty"`
	Email        string            `json:"email,omitempty"`
	PhoneDisplay string            `json:"phoneDisplay,omitempty"`
}

// Handle (POST /api/validate-contact)
func (h *ValidationHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}

	if err := decodeJSON(w, r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON inválido")
		return
	}

	if input.Email == "" && input.Phone == "" {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_FIELDS", "email ou phone é obrigatório")
		return
	}

	resp := ValidateContactResponse{Valid: true, Fields: map[string]string{}}

	if input.Email != "" {
		if entity.IsValidEmail(input.Email) {
			resp.Email = entity.NormalizeEmail(input.Email)
		} else {
			resp.Fields["email"] = "email inválido"
		}
	}
	if input.Phone != "" {
		if entity.HasMinimumDigits(input.Phone) {
			resp.PhoneDisplay = entity.FormatPhoneDisplay(input.Phone)
		} else {
			resp.Fields["phone"] = "telefone inválido"
		}
	}

	resp.Valid = len(resp.Fields) == 0
	if resp.Valid {
		resp.Fields = nil
	}
	writeJSON(w, http.StatusOK, resp)
}
