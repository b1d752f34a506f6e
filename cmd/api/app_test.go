package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/lead-intake/internal/config"
)

// crmFake guarda contatos e negócios em memória e responde às chamadas HubSpot do serviço.
type crmFake struct {
	mu       sync.Mutex
	contacts map[string]map[string]string
	deals    map[string]map[string]string
	assoc    map[string]string // negócio -> contato
	nextID   int
	searches []string // dealstage de cada busca de negócios
}

func newCRMFake() *crmFake {
	return &crmFake{
		contacts: map[string]map[string]string{},
		deals:    map[string]map[string]string{},
		assoc:    map[string]string{},
		nextID:   500,
	}
}

type fakeFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type fakeSearch struct {
	FilterGroups []struct {
		Filters []fakeFilter `json:"filters"`
	} `json:"filterGroups"`
}

func matches(props map[string]string, filters []fakeFilter) bool {
	for _, f := range filters {
		v := props[f.PropertyName]
		switch f.Operator {
		case "EQ":
			if v != f.Value {
				return false
			}
		case "NEQ":
			if v == f.Value {
				return false
			}
		case "NOT_HAS_PROPERTY":
			if v != "" {
				return false
			}
		}
	}
	return true
}

func (f *crmFake) newID() string {
	f.nextID++
	return fmt.Sprint(f.nextID)
}

func (f *crmFake) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	readProps := func(r *http.Request) map[string]string {
		var in struct {
			Properties map[string]string `json:"properties"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		return in.Properties
	}
	writeObject := func(w http.ResponseWriter, status int, id string, props map[string]string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "properties": props})
	}

	mux.HandleFunc("POST /crm/v3/objects/contacts/search", func(w http.ResponseWriter, r *http.Request) {
		var q fakeSearch
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		f.mu.Lock()
		defer f.mu.Unlock()
		results := []map[string]interface{}{}
		for id, c := range f.contacts {
			if matches(c, q.FilterGroups[0].Filters) {
				results = append(results, map[string]interface{}{"id": id, "properties": c})
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	})
	mux.HandleFunc("POST /crm/v3/objects/contacts", func(w http.ResponseWriter, r *http.Request) {
		props := readProps(r)
		f.mu.Lock()
		id := f.newID()
		f.contacts[id] = props
		f.mu.Unlock()
		writeObject(w, http.StatusCreated, id, props)
	})
	mux.HandleFunc("PATCH /crm/v3/objects/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		props := readProps(r)
		f.mu.Lock()
		for k, v := range props {
			f.contacts[r.PathValue("id")][k] = v
		}
		f.mu.Unlock()
		writeObject(w, http.StatusOK, r.PathValue("id"), props)
	})
	mux.HandleFunc("GET /crm/v3/objects/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		props := f.contacts[r.PathValue("id")]
		f.mu.Unlock()
		writeObject(w, http.StatusOK, r.PathValue("id"), props)
	})

	mux.HandleFunc("POST /crm/v3/objects/deals", func(w http.ResponseWriter, r *http.Request) {
		props := readProps(r)
		f.mu.Lock()
		id := f.newID()
		f.deals[id] = props
		f.mu.Unlock()
		writeObject(w, http.StatusCreated, id, props)
	})
	mux.HandleFunc("PUT /crm/v4/objects/deals/{deal}/associations/default/contacts/{contact}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.assoc[r.PathValue("deal")] = r.PathValue("contact")
		f.mu.Unlock()
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /crm/v3/objects/deals/search", func(w http.ResponseWriter, r *http.Request) {
		var q fakeSearch
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		f.mu.Lock()
		defer f.mu.Unlock()
		results := []map[string]interface{}{}
		for id, d := range f.deals {
			for _, g := range q.FilterGroups {
				if matches(d, g.Filters) {
					results = append(results, map[string]interface{}{"id": id, "properties": d})
					break
				}
			}
		}
		for _, flt := range q.FilterGroups[0].Filters {
			if flt.PropertyName == "dealstage" {
				f.searches = append(f.searches, flt.Value)
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	})
	mux.HandleFunc("GET /crm/v4/objects/deals/{deal}/associations/contacts", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		contact := f.assoc[r.PathValue("deal")]
		f.mu.Unlock()
		fmt.Fprintf(w, `{"results":[{"toObjectId":%s}]}`, contact)
	})
	mux.HandleFunc("PATCH /crm/v3/objects/deals/{id}", func(w http.ResponseWriter, r *http.Request) {
		props := readProps(r)
		f.mu.Lock()
		for k, v := range props {
			f.deals[r.PathValue("id")][k] = v
		}
		f.mu.Unlock()
		writeObject(w, http.StatusOK, r.PathValue("id"), props)
	})

	return httptest.NewServer(mux)
}

func (f *crmFake) dealNamed(name string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deals {
		if strings.Contains(d["dealname"], name) {
			return d
		}
	}
	return nil
}

type sentTemplate struct {
	To       string
	Template string
}

func whatsAppFake(t *testing.T) (*httptest.Server, func() []sentTemplate) {
	t.Helper()
	var (
		mu   sync.Mutex
		sent []sentTemplate
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/phone-1/messages", r.URL.Path)
		var in struct {
			To       string `json:"to"`
			Template struct {
				Name string `json:"name"`
			} `json:"template"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		mu.Lock()
		sent = append(sent, sentTemplate{To: in.To, Template: in.Template.Name})
		mu.Unlock()
		w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.1"}]}`))
	}))
	return srv, func() []sentTemplate {
		mu.Lock()
		defer mu.Unlock()
		return append([]sentTemplate(nil), sent...)
	}
}

func newTestApplication(t *testing.T, hubspotURL, whatsappURL string) *application {
	t.Helper()
	for _, k := range []string{
		"REDIS_URL", "AMQP_URL", "DATABASE_URL", "SENTRY_DSN",
		"MS_CLIENT_ID", "MS_CLIENT_SECRET", "MS_TENANT_ID", "MS_FROM_ADDRESS", "MAIL_HOST",
		"HUBSPOT_PIPELINE_ID", "HUBSPOT_LEAD_STAGE_ID", "HUBSPOT_QUALIFIED_STAGE_ID", "HUBSPOT_FOLLOWUP_STAGE_ID",
		"WHATSAPP_SALES_REP_NUMBER", "REMINDER_STRICT_FLAGS", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("HUBSPOT_API_KEY", "pat-test")
	t.Setenv("HUBSPOT_BASE_URL", hubspotURL)
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "wa-token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "phone-1")
	t.Setenv("WHATSAPP_BASE_URL", whatsappURL)
	t.Setenv("CRON_SECRET", "cron-secret")
	t.Setenv("MEETUP_START", "2026-11-05T19:00:00-03:00")
	t.Setenv("REMINDER_SENDS_PER_SECOND", "0")

	ctx, cancel := context.WithCancel(context.Background())
	a, err := newApplication(ctx, config.LoadConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		a.close()
	})
	return a
}

func call(t *testing.T, h http.Handler, method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.7:51000"
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// TestApplicationMeetupRegistrantGetsReminder - Lead, inscrição e lembrete pela fiação real do main
func TestApplicationMeetupRegistrantGetsReminder(t *testing.T) {
	crm := newCRMFake()
	hub := crm.server(t)
	t.Cleanup(hub.Close)
	wa, sent := whatsAppFake(t)
	t.Cleanup(wa.Close)

	a := newTestApplication(t, hub.URL, wa.URL)

	w := call(t, a.handler, http.MethodPost, "/api/lead", map[string]interface{}{
		"firstName": "João",
		"lastName":  "Souza",
		"email":     "joao@empresa.com.br",
		"phone":     "11912345678",
		"consent":   true,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, a.handler, http.MethodPost, "/api/register-meetup", map[string]interface{}{
		"firstname":     "Ana",
		"lastname":      "Silva",
		"email":         "ana@x.com",
		"phone":         "11987654321",
		"english_level": "Intermediário",
		"lgpdConsent":   true,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	lead := crm.dealNamed("João Souza")
	meetup := crm.dealNamed("Ana Silva")
	require.NotNil(t, lead)
	require.NotNil(t, meetup)
	assert.Equal(t, "appointmentscheduled", lead["dealstage"])
	assert.Equal(t, "qualifiedtobuy", meetup["dealstage"])

	w = call(t, a.handler, http.MethodPost, "/api/send-reminders", map[string]string{"type": "d3"},
		map[string]string{"Authorization": "Bearer cron-secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		OK      bool `json:"ok"`
		Summary struct {
			Total int `json:"total"`
			Sent  int `json:"sent"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 1, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Sent)

	// o dispatcher busca no mesmo estágio em que o negócio do meetup nasce
	crm.mu.Lock()
	assert.Equal(t, []string{meetup["dealstage"]}, crm.searches)
	crm.mu.Unlock()
	assert.Equal(t, "true", crm.dealNamed("Ana Silva")["reminder_d3_sent"])
	assert.Empty(t, crm.dealNamed("João Souza")["reminder_d3_sent"])

	assert.Contains(t, sent(), sentTemplate{To: "5511987654321", Template: "meetup_lembrete_d3"})
	assert.Contains(t, sent(), sentTemplate{To: "5511987654321", Template: "meetup_confirmacao"})

	// a segunda execução não encontra mais nada para enviar
	w = call(t, a.handler, http.MethodGet, "/api/send-reminders?type=d3", nil,
		map[string]string{"Authorization": "Bearer cron-secret"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Summary.Total)
}

func TestApplicationRemindersRequireCronSecret(t *testing.T) {
	crm := newCRMFake()
	hub := crm.server(t)
	t.Cleanup(hub.Close)
	wa, _ := whatsAppFake(t)
	t.Cleanup(wa.Close)

	a := newTestApplication(t, hub.URL, wa.URL)

	w := call(t, a.handler, http.MethodPost, "/api/send-reminders", map[string]string{"type": "d7"}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Unauthorized"}`, w.Body.String())
	crm.mu.Lock()
	assert.Empty(t, crm.searches)
	crm.mu.Unlock()
}
