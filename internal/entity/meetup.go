package entity

import (
	"strings"
	"time"
)

// MeetupRegistration é o payload da inscrição no meetup de conversação.
type MeetupRegistration struct {
	FirstName    string `json:"firstname" validate:"required,min=2,max=100"`
	LastName     string `json:"lastname" validate:"required,min=1,max=100"`
	Email        string `json:"email" validate:"required,leademail"`
	Phone        string `json:"phone" validate:"required,max=30"`
	EnglishLevel string `json:"english_level" validate:"required,max=50"`
	LGPDConsent  bool   `json:"lgpdConsent"`
	Honeypot     string `json:"honeypot,omitempty"`
	UTM
}

func (m MeetupRegistration) FullName() string {
	return joinName(m.FirstName, m.LastName)
}

// MeetupEvent descreve o próximo meetup; alimenta os emails e o convite de calendário.
type MeetupEvent struct {
	Title    string
	Start    time.Time
	Duration time.Duration
	Location string
	URL      string
}

func (e MeetupEvent) Scheduled() bool {
	return !e.Start.IsZero()
}

func (e MeetupEvent) End() time.Time {
	if e.Duration <= 0 {
		return e.Start.Add(2 * time.Hour)
	}
	return e.Start.Add(e.Duration)
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
