package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xavierca1/lead-intake/internal/entity"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// campos reportados pelo nome json
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
		return entity.IsValidEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateStruct aplica as tags da struct e devolve um DomainError com todos os campos inválidos.
func ValidateStruct(s interface{}) *DomainError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &DomainError{Code: ErrCodeInvalidPayload, Message: "Dados inválidos"}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: "Verifique os campos destacados",
		Fields:  fields,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "min":
		return fmt.Sprintf("mínimo de %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("máximo de %s caracteres", fe.Param())
	case "leademail":
		return "email inválido"
	default:
		return "valor inválido"
	}
}

// validateContact aplica as checagens comuns aos formulários públicos, nesta ordem:
// schema, consentimento e tamanho do telefone.
func validateContact(s interface{}, consent bool, phone string) error {
	if derr := ValidateStruct(s); derr != nil {
		return derr
	}
	if !consent {
		return &DomainError{
			Code:    ErrCodeConsentRequired,
			Message: "É necessário aceitar os termos de privacidade (LGPD)",
			Fields:  map[string]string{"consent": "obrigatório"},
		}
	}
	if !entity.HasMinimumDigits(phone) {
		return &DomainError{
			Code:    ErrCodeInvalidPhone,
			Message: "Telefone inválido: informe DDD e número",
			Fields:  map[string]string{"phone": fmt.Sprintf("mínimo de %d dígitos", entity.MinPhoneDigits)},
		}
	}
	return nil
}
