package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xavierca1/lead-intake/internal/entity"
)

func leadJob() entity.NotificationJob {
	return entity.NotificationJob{
		ID:             "lead-1",
		Kind:           entity.NotificationLeadCaptured,
		FirstName:      "Ana",
		LastName:       "Silva",
		Email:          "ana@x.com",
		MessagingPhone: "5511987654321",
		PhoneDisplay:   "(11) 98765-4321",
	}
}

func TestNotifyLeadCaptured(t *testing.T) {
	wa := &MockMessaging{configured: true}
	email := &MockEmail{configured: true}

	wa.On("SendTemplate", mock.Anything, "5511987654321", TemplateLeadWelcome, []string{"Ana"}).Return(nil).Once()
	wa.On("SendTemplate", mock.Anything, "5511900000000", TemplateLeadInternal,
		[]string{"Ana Silva", "(11) 98765-4321", "ana@x.com", "-", "-"}).Return(nil).Once()
	email.On("Send", mock.Anything, mock.MatchedBy(func(m entity.EmailMessage) bool {
		return m.To == "ana@x.com" && len(m.Attachments) == 0
	})).Return(nil).Once()

	results, err := NewNotifyUseCase(wa, email, "5511900000000", meetup, "").Process(context.Background(), leadJob())

	require.NoError(t, err)
	assert.False(t, Partial(results))
	wa.AssertExpectations(t)
	email.AssertExpectations(t)
}

// TestNotifyFailuresAreIsolated - Uma falha não impede os outros canais
func TestNotifyFailuresAreIsolated(t *testing.T) {
	wa := &MockMessaging{configured: true}
	email := &MockEmail{configured: true}

	wa.On("SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("whatsapp api error 400"))
	email.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	results, err := NewNotifyUseCase(wa, email, "5511900000000", meetup, "").Process(context.Background(), leadJob())

	require.NoError(t, err)
	assert.True(t, Partial(results))
	assert.False(t, results[StepWhatsApp].OK)
	assert.False(t, results[StepWhatsAppInternal].OK)
	assert.True(t, results[StepEmail].OK)
}

func TestNotifyLeadWithoutPhone(t *testing.T) {
	wa := &MockMessaging{configured: true}
	job := leadJob()
	job.MessagingPhone = ""

	wa.On("SendTemplate", mock.Anything, "5511900000000", TemplateLeadInternal, mock.Anything).Return(nil).Once()

	results, _ := NewNotifyUseCase(wa, &MockEmail{}, "5511900000000", meetup, "").Process(context.Background(), job)

	assert.True(t, results[StepWhatsApp].Skipped)
	assert.True(t, results[StepWhatsAppInternal].OK)
	assert.True(t, results[StepEmail].Skipped)
}

// TestInlineNotifierRunsInBackground - Dispatch retorna antes do envio e Wait não vaza goroutines
func TestInlineNotifierRunsInBackground(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	done := make(chan entity.NotificationJob, 1)

	n := &InlineNotifier{
		timeout: time.Second,
		process: func(ctx context.Context, job entity.NotificationJob) (map[string]entity.IntegrationResult, error) {
			<-release
			assert.NoError(t, ctx.Err())
			done <- job
			return map[string]entity.IntegrationResult{StepEmail: entity.Succeeded("")}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.Dispatch(ctx, entity.NotificationJob{Kind: entity.NotificationLeadCaptured}))
	// o fim da requisição não pode cancelar as notificações
	cancel()
	close(release)
	n.Wait()

	job := <-done
	assert.NotEmpty(t, job.ID)
}

func TestNotificationPlanStopsOnRequiredFailure(t *testing.T) {
	var ran []string
	step := func(name string, required bool, err error) Step {
		return Step{Name: name, Required: required, Fn: func(context.Context) (string, error) {
			ran = append(ran, name)
			return name + "-id", err
		}}
	}

	plan := NewNotificationPlan()
	plan.Add(
		step("a", false, errors.New("boom")),
		Step{Name: "b", SkipReason: "off"},
		step("c", true, errors.New("fatal")),
		step("d", false, nil),
	)

	results, err := plan.Execute(context.Background())

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "c", serr.Step)
	assert.Equal(t, []string{"a", "c"}, ran)
	assert.Equal(t, entity.IntegrationResult{Error: "boom"}, results["a"])
	assert.Equal(t, entity.IntegrationResult{Skipped: true, Error: "off"}, results["b"])
	assert.NotContains(t, results, "d")
}

func TestNotificationPlanLogsSkippedSteps(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	plan := NewNotificationPlan()
	plan.Add(Step{Name: StepWhatsApp, SkipReason: "whatsapp não configurado"})

	_, err := plan.Execute(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessageSnippet("whatsapp não configurado").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}
