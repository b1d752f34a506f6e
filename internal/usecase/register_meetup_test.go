package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/lead-intake/internal/entity"
)

var meetup = entity.MeetupEvent{
	Title:    "English Meetup",
	Start:    time.Date(2025, 11, 5, 22, 0, 0, 0, time.UTC),
	Duration: 2 * time.Hour,
	Location: "Av. Paulista, 1000",
}

func anaRegistration() entity.MeetupRegistration {
	return entity.MeetupRegistration{
		FirstName:    "Ana",
		LastName:     "Silva",
		Email:        "ana@x.com",
		Phone:        "11987654321",
		EnglishLevel: "Intermediário",
		LGPDConsent:  true,
	}
}

func TestRegisterMeetupAllIntegrations(t *testing.T) {
	crm := &MockCRM{configured: true}
	wa := &MockMessaging{configured: true}
	email := &MockEmail{configured: true}

	crm.On("UpsertContact", mock.Anything, mock.MatchedBy(func(p map[string]string) bool {
		return p["english_level"] == "Intermediário" && p["phone"] == "+5511987654321"
	})).Return(entity.UpsertResult{ID: "501"}, nil).Once()
	crm.On("CreateDeal", mock.Anything, mock.MatchedBy(func(p map[string]string) bool {
		return p["dealstage"] == "qualifiedtobuy" && p["dealname"] == "English Meetup - Ana Silva"
	}), "501").Return("901", nil).Once()
	wa.On("SendTemplate", mock.Anything, "5511987654321", TemplateMeetupConfirmation, []string{"Ana", "quarta-feira, 05/11 às 19h"}).Return(nil).Once()
	wa.On("SendTemplate", mock.Anything, "5511900000000", TemplateMeetupInternal, mock.Anything).Return(nil).Once()
	email.On("Send", mock.Anything, mock.MatchedBy(func(m entity.EmailMessage) bool {
		return m.To == "ana@x.com" && len(m.Attachments) == 1 && m.Attachments[0].FileName == "meetup.ics"
	})).Return(nil).Once()

	notify := NewNotifyUseCase(wa, email, "5511900000000", meetup, "eventos@escola.com.br")
	uc := NewRegisterMeetupUseCase(crm, notify, nil, meetup, "default", "qualifiedtobuy")

	out, err := uc.Execute(context.Background(), anaRegistration())

	require.NoError(t, err)
	assert.False(t, out.Partial)
	assert.Equal(t, entity.IntegrationResult{OK: true, ID: "901"}, out.IntegrationResults[StepHubSpot])
	assert.True(t, out.IntegrationResults[StepWhatsApp].OK)
	assert.True(t, out.IntegrationResults[StepWhatsAppInternal].OK)
	assert.True(t, out.IntegrationResults[StepEmail].OK)
	crm.AssertExpectations(t)
	wa.AssertExpectations(t)
	email.AssertExpectations(t)
}

// TestRegisterMeetupNothingConfigured - Sem credenciais tudo é ignorado, mas a inscrição é aceita
func TestRegisterMeetupNothingConfigured(t *testing.T) {
	notify := NewNotifyUseCase(&MockMessaging{}, &MockEmail{}, "", meetup, "")
	uc := NewRegisterMeetupUseCase(&MockCRM{}, notify, nil, meetup, "default", "qualifiedtobuy")

	out, err := uc.Execute(context.Background(), anaRegistration())

	require.NoError(t, err)
	assert.True(t, out.Partial)
	require.Len(t, out.IntegrationResults, 4)
	for name, r := range out.IntegrationResults {
		assert.False(t, r.OK, name)
		assert.True(t, r.Skipped, name)
	}
}

func TestRegisterMeetupCRMFailureIsFatal(t *testing.T) {
	crm := &MockCRM{configured: true}
	wa := &MockMessaging{configured: true}
	journal := new(MockLeadRepository)

	crm.On("UpsertContact", mock.Anything, mock.Anything).Return(entity.UpsertResult{}, errors.New("hubspot status 401"))
	journal.On("Save", mock.Anything, mock.Anything).Return(nil)

	notify := NewNotifyUseCase(wa, &MockEmail{}, "5511900000000", meetup, "")
	uc := NewRegisterMeetupUseCase(crm, notify, journal, meetup, "default", "qualifiedtobuy")

	out, err := uc.Execute(context.Background(), anaRegistration())

	var terr *TechnicalError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrCodeCRMFailed, terr.Code)
	require.NotNil(t, out)
	assert.False(t, out.IntegrationResults[StepHubSpot].OK)
	assert.Contains(t, out.IntegrationResults[StepHubSpot].Error, "401")
	assert.NotContains(t, out.IntegrationResults, StepWhatsApp)
	wa.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	require.Len(t, journal.saved, 1)
	assert.Equal(t, entity.LeadSourceMeetup, journal.saved[0].Source)
}

func TestRegisterMeetupNotificationFailureIsPartial(t *testing.T) {
	crm := &MockCRM{configured: true}
	wa := &MockMessaging{configured: true}
	email := &MockEmail{configured: true}

	crm.On("UpsertContact", mock.Anything, mock.Anything).Return(entity.UpsertResult{ID: "1"}, nil)
	crm.On("CreateDeal", mock.Anything, mock.Anything, "1").Return("2", nil)
	wa.On("SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("template rejected"))
	email.On("Send", mock.Anything, mock.Anything).Return(nil)

	notify := NewNotifyUseCase(wa, email, "", meetup, "")
	out, err := NewRegisterMeetupUseCase(crm, notify, nil, meetup, "p", "s").Execute(context.Background(), anaRegistration())

	require.NoError(t, err)
	assert.True(t, out.Partial)
	assert.True(t, out.IntegrationResults[StepHubSpot].OK)
	assert.Equal(t, "template rejected", out.IntegrationResults[StepWhatsApp].Error)
	assert.True(t, out.IntegrationResults[StepWhatsAppInternal].Skipped)
	assert.True(t, out.IntegrationResults[StepEmail].OK)
}

func TestRegisterMeetupHoneypot(t *testing.T) {
	crm := &MockCRM{configured: true}
	in := anaRegistration()
	in.Honeypot = "http://spam.example"

	_, err := NewRegisterMeetupUseCase(crm, nil, nil, meetup, "p", "s").Execute(context.Background(), in)

	var derr *DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrCodeSpamDetected, derr.Code)
	crm.AssertNotCalled(t, "UpsertContact", mock.Anything, mock.Anything)
}

func TestRegisterMeetupWithoutConsent(t *testing.T) {
	crm := &MockCRM{configured: true}
	in := anaRegistration()
	in.LGPDConsent = false

	_, err := NewRegisterMeetupUseCase(crm, nil, nil, meetup, "p", "s").Execute(context.Background(), in)

	var derr *DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrCodeConsentRequired, derr.Code)
	crm.AssertNotCalled(t, "UpsertContact", mock.Anything, mock.Anything)
}
