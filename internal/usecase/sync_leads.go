package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/entity"
)

const (
	DefaultSyncMaxAttempts = 5
	defaultSyncBatchSize   = 50
)

// SyncLeadsUseCase reenvia ao CRM os leads do journal cuja gravação falhou.
type SyncLeadsUseCase struct {
	Repo        entity.LeadRepositoryInterface
	CRM         CRMClient
	MaxAttempts int
	BatchSize   int
}

func NewSyncLeadsUseCase(repo entity.LeadRepositoryInterface, crm CRMClient) *SyncLeadsUseCase {
	return &SyncLeadsUseCase{
		Repo:        repo,
		CRM:         crm,
		MaxAttempts: DefaultSyncMaxAttempts,
		BatchSize:   defaultSyncBatchSize,
	}
}

type SyncLeadsOutput struct {
	Synced int
	Failed int
}

func (uc *SyncLeadsUseCase) Execute(ctx context.Context) (*SyncLeadsOutput, error) {
	out := &SyncLeadsOutput{}
	if uc.CRM == nil || !uc.CRM.Configured() {
		return out, nil
	}

	pending, err := uc.Repo.ListPendingSync(ctx, uc.MaxAttempts, uc.BatchSize)
	if err != nil {
		return out, fmt.Errorf("erro ao listar leads pendentes: %w", err)
	}

	for _, lead := range pending {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}

		contactID, dealID, _, err := writeToCRM(ctx, uc.CRM, lead.CRMPayload)
		if err != nil {
			out.Failed++
			zap.S().Warnf("⚠️ Lead %s: nova tentativa de CRM falhou (%d/%d): %v", lead.ID, lead.Attempts+1, uc.MaxAttempts, err)
			if markErr := uc.Repo.MarkFailed(ctx, lead.ID, err); markErr != nil {
				zap.S().Errorf("❌ Erro ao atualizar lead %s: %v", lead.ID, markErr)
			}
			continue
		}

		out.Synced++
		zap.S().Infof("🔁 Lead %s sincronizado com o CRM (negócio %s)", lead.ID, dealID)
		if markErr := uc.Repo.MarkSynced(ctx, lead.ID, contactID, dealID); markErr != nil {
			zap.S().Errorf("❌ Erro ao atualizar lead %s: %v", lead.ID, markErr)
		}
	}

	return out, nil
}
