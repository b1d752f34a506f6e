package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
)

// Config reúne toda a configuração da aplicação
type Config struct {
	Port           string
	Env            string
	AllowedOrigins []string

	HubSpot  HubSpotConfig
	WhatsApp WhatsAppConfig
	Graph    GraphConfig
	SMTP     SMTPConfig
	Meetup   entity.MeetupEvent

	CronSecret  string
	RedisURL    string
	AMQPURL     string
	DatabaseURL string
	SentryDSN   string

	RateLimitMax           int
	RateLimitWindow        time.Duration
	ReminderSendsPerSecond float64
	ReminderStrictFlags    bool

	MetaPixelID     string
	GAMeasurementID string
}

type HubSpotConfig struct {
	APIKey           string
	BaseURL          string
	PipelineID       string
	LeadStageID      string
	QualifiedStageID string
	FollowupStageID  string
}

type WhatsAppConfig struct {
	AccessToken      string
	PhoneNumberID    string
	BaseURL          string
	SalesRepNumber   string
	TemplateLanguage string
}

type GraphConfig struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	FromAddress  string
}

func (g GraphConfig) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.TenantID != "" && g.FromAddress != ""
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.From != ""
}

// LoadConfig lê a configuração das variáveis de ambiente
func LoadConfig() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", "production"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		HubSpot: HubSpotConfig{
			APIKey:           os.Getenv("HUBSPOT_API_KEY"),
			BaseURL:          getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
			PipelineID:       getEnv("HUBSPOT_PIPELINE_ID", "default"),
			LeadStageID:      getEnv("HUBSPOT_LEAD_STAGE_ID", "appointmentscheduled"),
			QualifiedStageID: getEnv("HUBSPOT_QUALIFIED_STAGE_ID", "qualifiedtobuy"),
			FollowupStageID:  getEnv("HUBSPOT_FOLLOWUP_STAGE_ID", getEnv("HUBSPOT_QUALIFIED_STAGE_ID", "qualifiedtobuy")),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:      os.Getenv("WHATSAPP_ACCESS_TOKEN"),
			PhoneNumberID:    os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:          getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v18.0"),
			SalesRepNumber:   entity.ToMessagingPhone(os.Getenv("WHATSAPP_SALES_REP_NUMBER")),
			TemplateLanguage: getEnv("WHATSAPP_TEMPLATE_LANGUAGE", "pt_BR"),
		},
		Graph: GraphConfig{
			ClientID:     os.Getenv("MS_CLIENT_ID"),
			ClientSecret: os.Getenv("MS_CLIENT_SECRET"),
			TenantID:     os.Getenv("MS_TENANT_ID"),
			FromAddress:  os.Getenv("MS_FROM_ADDRESS"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("MAIL_HOST"),
			Port:     getInt("MAIL_PORT", 587),
			User:     os.Getenv("MAIL_USER"),
			Password: os.Getenv("MAIL_PASS"),
			From:     getEnv("MAIL_FROM", os.Getenv("MAIL_USER")),
		},
		Meetup: entity.MeetupEvent{
			Title:    getEnv("MEETUP_TITLE", "English Meetup"),
			Start:    getTime("MEETUP_START"),
			Duration: getDuration("MEETUP_DURATION", 2*time.Hour),
			Location: os.Getenv("MEETUP_LOCATION"),
			URL:      os.Getenv("MEETUP_URL"),
		},

		CronSecret:  os.Getenv("CRON_SECRET"),
		RedisURL:    os.Getenv("REDIS_URL"),
		AMQPURL:     os.Getenv("AMQP_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),

		RateLimitMax:           getInt("RATE_LIMIT_MAX", 5),
		RateLimitWindow:        getDuration("RATE_LIMIT_WINDOW", time.Minute),
		ReminderSendsPerSecond: getFloat("REMINDER_SENDS_PER_SECOND", 5),
		ReminderStrictFlags:    getBool("REMINDER_STRICT_FLAGS", false),

		MetaPixelID:     os.Getenv("META_PIXEL_ID"),
		GAMeasurementID: os.Getenv("GA_MEASUREMENT_ID"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		zap.S().Warnf("⚠️ Config: %s inválido (%q), usando %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		zap.S().Warnf("⚠️ Config: %s inválido (%q), usando %v", key, raw, fallback)
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		zap.S().Warnf("⚠️ Config: %s inválido (%q), usando %v", key, raw, fallback)
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		zap.S().Warnf("⚠️ Config: %s inválido (%q), usando %s", key, raw, fallback)
		return fallback
	}
	return v
}

func getTime(key string) time.Time {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Time{}
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		zap.S().Warnf("⚠️ Config: %s deve estar em RFC3339 (%q)", key, raw)
		return time.Time{}
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
