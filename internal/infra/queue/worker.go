package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
)

// JobProcessor entrega as notificações de um job e reporta cada canal.
type JobProcessor interface {
	Process(ctx context.Context, job entity.NotificationJob) (map[string]entity.IntegrationResult, error)
}

// Consumer é o recorte de *amqp.Channel que o worker usa.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel    Consumer
	Processor  JobProcessor
	JobTimeout time.Duration
}

func NewWorker(ch Consumer, processor JobProcessor) *Worker {
	return &Worker{
		Channel:    ch,
		Processor:  processor,
		JobTimeout: 30 * time.Second,
	}
}

type ackAction int

const (
	actionAck ackAction = iota
	actionRequeue
	actionDeadLetter
)

// Start consome a fila até ctx ser cancelado ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual é mais seguro)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	zap.S().Infof(" [*] Worker rodando e aguardando na fila '%s'", queueName)

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("🛑 [WORKER] Encerrando consumidor")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("canal do RabbitMQ fechado")
			}
			w.settle(d, w.handle(ctx, d.Body, d.Redelivered))
		}
	}
}

func (w *Worker) handle(ctx context.Context, body []byte, redelivered bool) ackAction {
	var job entity.NotificationJob
	if err := json.Unmarshal(body, &job); err != nil {
		// malformada; rejeita sem requeue para a fila andar
		zap.S().Errorf("❌ [WORKER] JSON Inválido: %s", err)
		return actionDeadLetter
	}

	zap.S().Infof("⚙️ [WORKER] Processando notificações de %s (%s)", job.ID, job.Kind)

	jobCtx, cancel := context.WithTimeout(ctx, w.JobTimeout)
	defer cancel()

	results, err := w.Processor.Process(jobCtx, job)
	if err != nil {
		zap.S().Errorf("❌ [WORKER] Erro ao processar %s: %v", job.ID, err)
	}

	if allFailed(results) {
		if !redelivered {
			zap.S().Warnf("🔁 [WORKER] Todas as notificações de %s falharam, nova tentativa", job.ID)
			return actionRequeue
		}
		zap.S().Errorf("❌ [WORKER] Notificações de %s falharam de novo, enviando para DLQ", job.ID)
		return actionDeadLetter
	}

	zap.S().Infof("✅ [WORKER] Notificações de %s concluídas", job.ID)
	return actionAck
}

// allFailed é true quando algo foi tentado e nada deu certo. Só então o retry não duplica
// mensagem entregue.
func allFailed(results map[string]entity.IntegrationResult) bool {
	attempted := 0
	for _, r := range results {
		if r.Skipped {
			continue
		}
		if r.OK {
			return false
		}
		attempted++
	}
	return attempted > 0
}

func (w *Worker) settle(d amqp.Delivery, action ackAction) {
	var err error
	switch action {
	case actionAck:
		err = d.Ack(false)
	case actionRequeue:
		err = d.Nack(false, true)
	case actionDeadLetter:
		err = d.Nack(false, false)
	}
	if err != nil {
		zap.S().Errorf("❌ [WORKER] Erro ao confirmar mensagem: %v", err)
	}
}
