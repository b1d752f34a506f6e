package handlers

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/lead-intake/internal/infra/http/middleware"
)

type Routes struct {
	Lead           *LeadHandler
	Meetup         *MeetupHandler
	Reminders      *ReminderHandler
	Health         *HealthHandler
	Validation     *ValidationHandler
	AllowedOrigins []string
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Rota não encontrada")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, FailureResponse{OK: false, Error: "Método não permitido"})
	})

	if rt.Health != nil {
		r.Get("/health", rt.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if rt.Lead != nil {
			r.Post("/lead", rt.Lead.CaptureLead)
		}
		if rt.Meetup != nil {
			// o próprio handler responde 405 no formato {ok:false}
			r.HandleFunc("/register-meetup", rt.Meetup.Register)
		}
		if rt.Reminders != nil {
			// crons no estilo Vercel chamam com GET
			r.Get("/send-reminders", rt.Reminders.Send)
			r.Post("/send-reminders", rt.Reminders.Send)
		}
		if rt.Validation != nil {
			r.Post("/validate-contact", rt.Validation.Handle)
		}
	})

	return r
}
