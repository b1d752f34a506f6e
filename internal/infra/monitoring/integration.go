package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var integrationErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "integration_errors_total",
		Help: "Total number of integration errors",
	},
	[]string{"service"},
)

// ReportIntegrationError loga, conta e envia ao Sentry uma chamada a terceiro que falhou.
func ReportIntegrationError(service string, err error, extra map[string]interface{}) {
	if err == nil {
		return
	}
	zap.S().Errorf("❌ %s: %v", service, err)
	integrationErrors.WithLabelValues(service).Inc()
	CaptureError(err, service, extra)
}
