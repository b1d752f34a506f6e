package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/lead-intake/internal/entity"
)

const uniqueViolation = "23505"

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// Save grava o lead. Salvar o mesmo ID duas vezes não é erro.
func (r *LeadRepository) Save(ctx context.Context, lead *entity.Lead) error {
	payload, err := json.Marshal(lead.CRMPayload)
	if err != nil {
		return fmt.Errorf("erro ao serializar payload do CRM: %w", err)
	}

	now := time.Now()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	query := `
		INSERT INTO leads (id, source, email, name, phone, status, crm_payload, crm_contact_id, crm_deal_id, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.Source,
		lead.Email,
		nullString(lead.Name),
		nullString(lead.Phone),
		lead.Status,
		string(payload), // []byte iria como bytea
		nullString(lead.CRMContactID),
		nullString(lead.CRMDealID),
		lead.Attempts,
		nullString(lead.LastError),
		lead.CreatedAt,
		lead.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil
	}
	return err
}

func (r *LeadRepository) MarkSynced(ctx context.Context, id, contactID, dealID string) error {
	query := `
		UPDATE leads
		SET status = $2, crm_contact_id = $3, crm_deal_id = $4, attempts = attempts + 1, last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, entity.LeadStatusSynced, nullString(contactID), nullString(dealID))
}

func (r *LeadRepository) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	query := `
		UPDATE leads
		SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, entity.LeadStatusCRMFailed, nullString(msg))
}

// ListPendingSync devolve os leads CRM_FAILED abaixo de maxAttempts, mais antigos primeiro.
func (r *LeadRepository) ListPendingSync(ctx context.Context, maxAttempts, limit int) ([]*entity.Lead, error) {
	query := `
		SELECT id, source, email, COALESCE(name, ''), COALESCE(phone, ''), status, crm_payload,
		       COALESCE(crm_contact_id, ''), COALESCE(crm_deal_id, ''), attempts, COALESCE(last_error, ''),
		       created_at, updated_at
		FROM leads
		WHERE status = $1 AND attempts < $2
		ORDER BY created_at
		LIMIT $3
	`

	rows, err := r.DB.QueryContext(ctx, query, entity.LeadStatusCRMFailed, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		var (
			l       entity.Lead
			payload []byte
		)
		if err := rows.Scan(&l.ID, &l.Source, &l.Email, &l.Name, &l.Phone, &l.Status, &payload,
			&l.CRMContactID, &l.CRMDealID, &l.Attempts, &l.LastError, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &l.CRMPayload); err != nil {
			return nil, fmt.Errorf("payload inválido no lead %s: %w", l.ID, err)
		}
		leads = append(leads, &l)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
