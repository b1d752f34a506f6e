package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
	"github.com/xavierca1/lead-intake/internal/infra/monitoring"
)

// Step é um efeito colateral nomeado. Steps com SkipReason preenchido não executam.
type Step struct {
	Name       string
	Required   bool
	SkipReason string
	Fn         func(context.Context) (string, error)
}

// NotificationPlan executa os passos em ordem e guarda um resultado por passo. Só um passo
// Required aborta o plano; as outras falhas são registradas e o plano segue.
type NotificationPlan struct {
	steps []Step
}

func NewNotificationPlan() *NotificationPlan {
	return &NotificationPlan{steps: []Step{}}
}

func (p *NotificationPlan) Add(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepError indica o passo obrigatório que abortou o plano.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step '%s' failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (p *NotificationPlan) Execute(ctx context.Context) (map[string]entity.IntegrationResult, error) {
	results := make(map[string]entity.IntegrationResult, len(p.steps))

	for _, step := range p.steps {
		if step.SkipReason != "" {
			zap.S().Warnf("⚠️ %s: ignorado (%s)", step.Name, step.SkipReason)
			results[step.Name] = entity.Skipped(step.SkipReason)
			continue
		}

		id, err := step.Fn(ctx)
		if err != nil {
			monitoring.ReportIntegrationError(step.Name, err, nil)
			results[step.Name] = entity.Failed(err)
			if step.Required {
				return results, &StepError{Step: step.Name, Err: err}
			}
			continue
		}
		results[step.Name] = entity.Succeeded(id)
	}

	return results, nil
}

// Partial é true quando algum resultado não teve sucesso.
func Partial(results map[string]entity.IntegrationResult) bool {
	for _, r := range results {
		if !r.OK {
			return true
		}
	}
	return false
}
