package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
)

// Publisher é o recorte de *amqp.Channel que o producer usa.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQProducer publica NotificationJobs; é o Notifier usado quando AMQP_URL existe.
type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) Dispatch(ctx context.Context, job entity.NotificationJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    job.ID,
			Type:         job.Kind,
			Timestamp:    time.Now(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}

	zap.S().Infof("📤 Notificação %s (%s) publicada", job.ID, job.Kind)
	return nil
}
