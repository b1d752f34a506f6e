package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/usecase"
)

type LeadSyncer interface {
	Execute(ctx context.Context) (*usecase.SyncLeadsOutput, error)
}

// CRMSyncWorker reenvia periodicamente ao CRM os leads que ficaram no journal como CRM_FAILED.
type CRMSyncWorker struct {
	syncer       LeadSyncer
	tickInterval time.Duration
}

func NewCRMSyncWorker(syncer LeadSyncer, interval time.Duration) *CRMSyncWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CRMSyncWorker{
		syncer:       syncer,
		tickInterval: interval,
	}
}

func (w *CRMSyncWorker) Start(ctx context.Context) {
	zap.S().Infof("🕒 CRM Sync Worker iniciado (a cada %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.syncPending(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("⚠️ CRM Sync Worker encerrado")
			return
		case <-ticker.C:
			w.syncPending(ctx)
		}
	}
}

func (w *CRMSyncWorker) syncPending(ctx context.Context) {
	out, err := w.syncer.Execute(ctx)
	if err != nil {
		if ctx.Err() == nil {
			zap.S().Errorf("❌ Erro ao sincronizar leads pendentes: %v", err)
		}
		return
	}

	if out.Synced > 0 || out.Failed > 0 {
		zap.S().Infof("✅ CRM Sync: %d sincronizado(s), %d falha(s)", out.Synced, out.Failed)
	}
}
