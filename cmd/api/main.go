package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // America/Sao_Paulo em imagens sem zoneinfo

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/config"
	"github.com/xavierca1/lead-intake/internal/infra/logger"
	"github.com/xavierca1/lead-intake/internal/infra/monitoring"
)

var version = "dev"

func main() {
	godotenv.Load()

	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.LoadConfig()

	if err := monitoring.InitSentry(cfg.SentryDSN, cfg.Env, version); err != nil {
		zap.S().Warnf("⚠️ Sentry desativado: %v", err)
	}
	defer monitoring.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		zap.S().Fatalf("❌ Falha ao iniciar: %v", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// uma execução de lembretes pagina por todos os negócios qualificados
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zap.S().Infof("🔥 Lead Intake %s rodando na porta %s", version, cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Errorf("❌ Servidor HTTP: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	zap.S().Info("⚠️ Encerrando...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("❌ Erro no shutdown HTTP: %v", err)
	}
	app.close()
	zap.S().Info("👋 Servidor encerrado")
}
