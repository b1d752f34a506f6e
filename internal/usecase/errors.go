package usecase

import (
	"errors"
	"fmt"
)

const (
	ErrCodeInvalidPayload   = "INVALID_PAYLOAD"
	ErrCodeValidation       = "VALIDATION_FAILED"
	ErrCodeConsentRequired  = "CONSENT_REQUIRED"
	ErrCodeInvalidPhone     = "INVALID_PHONE"
	ErrCodeSpamDetected     = "SPAM_DETECTED"
	ErrCodeInvalidReminder  = "INVALID_REMINDER_TYPE"
	ErrCodeCRMNotConfigured = "CRM_NOT_CONFIGURED"
	ErrCodeCRMFailed        = "CRM_FAILED"
)

// DomainError é um erro de entrada do cliente; a mensagem pode ir para o usuário.
type DomainError struct {
	Code    string
	Message string
	Fields  map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError é uma falha de infraestrutura ou de um terceiro.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}
