package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq" // Driver do Postgres
)

// NewDBConnection abre a conexão e testa o Ping
func NewDBConnection(connString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id             UUID PRIMARY KEY,
	source         TEXT NOT NULL,
	email          TEXT NOT NULL,
	name           TEXT,
	phone          TEXT,
	status         TEXT NOT NULL,
	crm_payload    JSONB NOT NULL,
	crm_contact_id TEXT,
	crm_deal_id    TEXT,
	attempts       INT NOT NULL DEFAULT 0,
	last_error     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_leads_pending ON leads (attempts, created_at) WHERE status = 'CRM_FAILED';
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads (email);
`

// Migrate cria a tabela do journal se ainda não existir.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
