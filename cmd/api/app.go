package main

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/app"
	"github.com/xavierca1/lead-intake/internal/config"
	"github.com/xavierca1/lead-intake/internal/entity"
	"github.com/xavierca1/lead-intake/internal/infra/database"
	"github.com/xavierca1/lead-intake/internal/infra/http/handlers"
	"github.com/xavierca1/lead-intake/internal/infra/queue"
	"github.com/xavierca1/lead-intake/internal/infra/ratelimit"
	"github.com/xavierca1/lead-intake/internal/infra/worker"
	"github.com/xavierca1/lead-intake/internal/usecase"
)

const crmSyncInterval = 5 * time.Minute

type application struct {
	handler http.Handler

	inline   *usecase.InlineNotifier
	memory   *ratelimit.MemoryLimiter
	redis    *redis.Client
	rabbitMQ *queue.RabbitMQ
	db       *sql.DB

	background sync.WaitGroup
}

// newApplication liga as dependências. Cada infra opcional (Redis, RabbitMQ, Postgres) que
// falhar ao conectar é desligada com um aviso; o serviço sobe com o fallback em memória.
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	a := &application{}
	in := app.NewIntegrations(cfg)
	notify := in.Notify(cfg)

	// 1. Rate limiter
	limiter := a.rateLimiter(ctx, cfg)
	limits := ratelimit.Options{MaxRequests: cfg.RateLimitMax, Window: cfg.RateLimitWindow}

	// 2. Notificações (fila ou goroutine)
	notifier := a.notifier(ctx, cfg, notify)

	// 3. Journal
	journal := a.journal(ctx, cfg, in)

	// 4. UseCases
	captureUC := usecase.NewCaptureLeadUseCase(in.HubSpot, notifier, journal, cfg.HubSpot.PipelineID, cfg.HubSpot.LeadStageID)
	// negócios do meetup já nascem no estágio que o dispatcher de lembretes lê
	meetupUC := usecase.NewRegisterMeetupUseCase(in.HubSpot, notify, journal, cfg.Meetup, cfg.HubSpot.PipelineID, cfg.HubSpot.QualifiedStageID)
	remindersUC := in.Reminders(cfg)

	// 5. Handlers
	a.handler = handlers.NewRouter(handlers.Routes{
		Lead:           handlers.NewLeadHandler(captureUC, limiter, limits),
		Meetup:         handlers.NewMeetupHandler(meetupUC, limiter, limits),
		Reminders:      handlers.NewReminderHandler(remindersUC, cfg.CronSecret),
		Validation:     handlers.NewValidationHandler(),
		Health:         handlers.NewHealthHandler(version, tracking(cfg), a.healthChecks(in)...),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	if cfg.CronSecret == "" {
		zap.S().Warn("⚠️ CRON_SECRET não configurado: /api/send-reminders recusará todas as chamadas")
	}
	return a, nil
}

func (a *application) rateLimiter(ctx context.Context, cfg *config.Config) ratelimit.Limiter {
	if cfg.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			a.redis = client
			zap.S().Info("🧱 Rate limit compartilhado via Redis")
			return ratelimit.NewRedisLimiter(client)
		}
		zap.S().Warnf("⚠️ Redis indisponível, usando rate limit em memória: %v", err)
	}
	a.memory = ratelimit.NewMemoryLimiter(time.Minute)
	return a.memory
}

func (a *application) notifier(ctx context.Context, cfg *config.Config, notify *usecase.NotifyUseCase) usecase.Notifier {
	if cfg.AMQPURL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err == nil {
			a.rabbitMQ = rmq
			w := queue.NewWorker(rmq.Ch, notify)

			a.background.Add(1)
			go func() {
				defer a.background.Done()
				if err := w.Start(ctx, queue.QueueName); err != nil {
					zap.S().Errorf("❌ Worker de notificações parou: %v", err)
				}
			}()
			return queue.NewProducer(rmq.Ch)
		}
		zap.S().Warnf("⚠️ RabbitMQ indisponível, notificações rodarão em goroutine: %v", err)
	}
	a.inline = usecase.NewInlineNotifier(notify, 30*time.Second)
	return a.inline
}

func (a *application) journal(ctx context.Context, cfg *config.Config, in *app.Integrations) entity.LeadRepositoryInterface {
	if cfg.DatabaseURL == "" {
		return nil
	}

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		zap.S().Warnf("⚠️ Postgres indisponível, journal de leads desativado: %v", err)
		return nil
	}
	if err := database.Migrate(ctx, db); err != nil {
		zap.S().Warnf("⚠️ Falha ao migrar journal, desativado: %v", err)
		db.Close()
		return nil
	}
	a.db = db

	repo := database.NewLeadRepository(db)
	syncWorker := worker.NewCRMSyncWorker(usecase.NewSyncLeadsUseCase(repo, in.HubSpot), crmSyncInterval)

	a.background.Add(1)
	go func() {
		defer a.background.Done()
		syncWorker.Start(ctx)
	}()

	zap.S().Info("🗄️ Journal de leads ativo (Postgres)")
	return repo
}

func (a *application) healthChecks(in *app.Integrations) []handlers.HealthCheck {
	checks := []handlers.HealthCheck{
		{Name: "hubspot", Configured: in.HubSpot.Configured(), Ping: in.HubSpot.Ping},
		{Name: "whatsapp", Configured: in.WhatsApp.Configured()},
		{Name: "email", Configured: in.Email.Configured()},
		{Name: "redis", Configured: a.redis != nil, Ping: func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}},
		{Name: "rabbitmq", Configured: a.rabbitMQ != nil, Ping: func(context.Context) error {
			if !a.rabbitMQ.Healthy() {
				return queue.ErrConnectionClosed
			}
			return nil
		}},
		{Name: "database", Configured: a.db != nil, Ping: func(ctx context.Context) error {
			return a.db.PingContext(ctx)
		}},
	}
	if in.EmailProvider == "msgraph" {
		checks[2].Ping = func(ctx context.Context) error {
			_, err := in.Graph.Token(ctx)
			return err
		}
	}
	return checks
}

func tracking(cfg *config.Config) map[string]bool {
	return map[string]bool{
		"meta_pixel": cfg.MetaPixelID != "",
		"ga":         cfg.GAMeasurementID != "",
	}
}

// close espera as notificações em andamento e fecha as conexões.
func (a *application) close() {
	if a.inline != nil {
		a.inline.Wait()
	}
	a.background.Wait()

	if a.rabbitMQ != nil {
		a.rabbitMQ.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.memory != nil {
		a.memory.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
}
