package routes

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/finza-app/finza/pkg/api/config"
	"github.com/finza-app/finza/pkg/api/services"
	"github.com/finza-app/finza/pkg/kv"
	"github.com/uptrace/bun"
)

func RegisterAPI(api huma.API, svcs *services.Services, cfg *config.EnvConfig, db *bun.DB, kvStore kv.Store, logger *slog.Logger) {
	RegisterAuth(api, svcs.Auth, cfg, logger)
	RegisterIAM(api, svcs.Auth, logger)
	RegisterHealth(api, db, kvStore)
}
