package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/infra/http/middleware"
	"github.com/xavierca1/lead-intake/internal/infra/ratelimit"
)

// checkRateLimit preenche os headers X-RateLimit-* e diz se a requisição pode seguir.
// Erro no limiter deixa a requisição passar.
func checkRateLimit(w http.ResponseWriter, r *http.Request, limiter ratelimit.Limiter, route string, opts ratelimit.Options) bool {
	if limiter == nil {
		return true
	}

	key := route + ":" + getClientIP(r)
	res, err := limiter.Check(r.Context(), key, opts)
	if err != nil {
		zap.S().Warnf("⚠️ RateLimit: erro ao verificar %s, liberando: %v", key, err)
		return true
	}

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetTime.Unix(), 10))

	if !res.Allowed {
		middleware.RecordRateLimited(route)
		zap.S().Warnf("🚫 RateLimit: %s bloqueado até %s", key, res.ResetTime.Format("15:04:05"))
		return false
	}
	return true
}
