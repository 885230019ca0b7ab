// Package services wires the auth subsystem's collaborators together.
package services

import (
	"log/slog"
	"time"

	"github.com/finza-app/finza/pkg/api/config"
	"github.com/finza-app/finza/pkg/api/services/auth"
	"github.com/finza-app/finza/pkg/api/services/iam"
	"github.com/finza-app/finza/pkg/db/repo"
	"github.com/finza-app/finza/pkg/kv"
	"github.com/finza-app/finza/pkg/metrics"
	"github.com/uptrace/bun"
)

type Services struct {
	Auth *auth.Service
	IAM  *iam.IAMService
	Gate *iam.Gate
}

func NewServices(cfg *config.EnvConfig, db *bun.DB, kvStore kv.Store, rec metrics.Recorder, logger *slog.Logger) *Services {
	provider := auth.NewGitHubProvider(auth.GitHubConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.BaseURL + "/api/auth/github/callback",
	})

	authSvc := auth.NewService(
		repo.NewBunUserStore(db),
		repo.NewBunAccountStore(db),
		repo.NewBunSessionStore(db),
		kvStore,
		provider,
		auth.Config{
			Secret:      []byte(cfg.AuthSecret),
			AccessTTL:   time.Duration(cfg.AccessTokenTTL) * time.Second,
			SessionTTL:  time.Duration(cfg.SessionTTL) * time.Second,
			AdminEmails: cfg.AdminEmails(),
		},
		rec,
		logger,
	)

	iamSvc := iam.NewIAMService(authSvc, logger)

	return &Services{
		Auth: authSvc,
		IAM:  iamSvc,
		Gate: iam.NewGate(iamSvc, rec, logger),
	}
}
