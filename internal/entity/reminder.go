package entity

import (
	"fmt"
	"strings"
)

type ReminderType string

const (
	ReminderD7       ReminderType = "d7"
	ReminderD3       ReminderType = "d3"
	ReminderD1       ReminderType = "d1"
	ReminderFollowup ReminderType = "followup"
)

// ReminderPolicy diz quais canais um tipo de lembrete usa e qual flag do negócio o controla.
type ReminderPolicy struct {
	Type     ReminderType
	Email    bool
	WhatsApp bool
	// FlagProperty fica vazia nos tipos sem flag (followup).
	FlagProperty string
	Template     string
}

var reminderPolicies = map[ReminderType]ReminderPolicy{
	ReminderD7: {
		Type:         ReminderD7,
		Email:        true,
		FlagProperty: "reminder_d7_sent",
	},
	ReminderD3: {
		Type:         ReminderD3,
		Email:        true,
		WhatsApp:     true,
		FlagProperty: "reminder_d3_sent",
		Template:     "meetup_lembrete_d3",
	},
	ReminderD1: {
		Type:         ReminderD1,
		Email:        true,
		WhatsApp:     true,
		FlagProperty: "reminder_d1_sent",
		Template:     "meetup_lembrete_d1",
	},
	ReminderFollowup: {
		Type:     ReminderFollowup,
		Email:    true,
		WhatsApp: true,
		Template: "meetup_followup",
	},
}

func ParseReminderType(s string) (ReminderType, error) {
	t := ReminderType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := reminderPolicies[t]; !ok {
		return "", fmt.Errorf("tipo de lembrete inválido: %q", s)
	}
	return t, nil
}

func PolicyFor(t ReminderType) (ReminderPolicy, bool) {
	p, ok := reminderPolicies[t]
	return p, ok
}

func (p ReminderPolicy) Gated() bool {
	return p.FlagProperty != ""
}

// ReminderQuery seleciona os negócios que uma execução do dispatcher processa.
type ReminderQuery struct {
	PipelineID string
	StageID    string
	// MissingFlag, quando preenchida, exclui negócios com a flag em "true".
	MissingFlag string
}

// ReminderSummary é o resumo devolvido por uma execução do dispatcher.
type ReminderSummary struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type ReminderError struct {
	DealID  string `json:"dealId"`
	Channel string `json:"channel,omitempty"`
	Error   string `json:"error"`
}
