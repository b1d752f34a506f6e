package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, env, release string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          "lead-intake@" + release,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	return nil
}

func Flush() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reporta uma falha de integração. Sem DSN o hub não tem client e nada
// é enviado.
func CaptureError(err error, service string, extra map[string]interface{}) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub()
	if hub == nil || hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("integration", service)
		for k, v := range extra {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}
