package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-intake/internal/app"
	"github.com/xavierca1/lead-intake/internal/config"
	"github.com/xavierca1/lead-intake/internal/entity"
	"github.com/xavierca1/lead-intake/internal/infra/database"
	"github.com/xavierca1/lead-intake/internal/infra/logger"
	"github.com/xavierca1/lead-intake/internal/usecase"
)

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Operações manuais do serviço de leads",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := logger.New(os.Getenv("APP_ENV")); err != nil {
				return err
			}
			cfg = config.LoadConfig()
			return nil
		},
	}

	root.AddCommand(
		newRemindersCmd(func() *config.Config { return cfg }),
		newEmailTokenCmd(func() *config.Config { return cfg }),
		newSyncLeadsCmd(func() *config.Config { return cfg }),
	)
	return root
}

// newRemindersCmd roda uma passada do dispatcher, igual ao endpoint do cron.
func newRemindersCmd(cfg func() *config.Config) *cobra.Command {
	var reminderType string

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Dispara os lembretes de um tipo (d7, d3, d1, followup)",
		Long: `Roda o dispatcher de lembretes sem passar pelo HTTP.

Busca no HubSpot os negócios qualificados sem a flag do tipo, envia os canais
da política e imprime o resumo em JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := entity.ParseReminderType(reminderType)
			if err != nil {
				return err
			}

			uc := app.NewIntegrations(cfg()).Reminders(cfg())
			out, err := uc.Execute(cmd.Context(), t)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&reminderType, "type", "t", "", "tipo do lembrete: d7, d3, d1 ou followup")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newEmailTokenCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "email-token",
		Short: "Valida as credenciais do Microsoft Graph obtendo um token",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := app.NewIntegrations(cfg())
			if !in.Graph.Configured() {
				return errors.New("MS_CLIENT_ID, MS_CLIENT_SECRET e MS_TENANT_ID são obrigatórios")
			}

			if _, err := in.Graph.Token(cmd.Context()); err != nil {
				return err
			}

			expires := in.Graph.ExpiresAt()
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Token obtido, expira em %s (%s)\n",
				expires.Format(time.RFC3339), time.Until(expires).Round(time.Second))
			return nil
		},
	}
}

func newSyncLeadsCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-leads",
		Short: "Reenvia ao CRM os leads do journal que falharam",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if c.DatabaseURL == "" {
				return errors.New("DATABASE_URL é obrigatório")
			}

			db, err := database.NewDBConnection(c.DatabaseURL)
			if err != nil {
				return fmt.Errorf("erro ao conectar no Postgres: %w", err)
			}
			defer db.Close()

			in := app.NewIntegrations(c)
			out, err := usecase.NewSyncLeadsUseCase(database.NewLeadRepository(db), in.HubSpot).Execute(cmd.Context())
			if err != nil {
				return err
			}

			zap.S().Infof("🔁 Sync concluído: %d sincronizado(s), %d falha(s)", out.Synced, out.Failed)
			fmt.Fprintf(cmd.OutOrStdout(), "synced=%d failed=%d\n", out.Synced, out.Failed)
			return nil
		},
	}
}
