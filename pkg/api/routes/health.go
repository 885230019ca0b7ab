package routes

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/finza-app/finza/pkg/kv"
	"github.com/uptrace/bun"
)

type HealthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status" enum:"ok,degraded" doc:"Overall health"`
		Database string `json:"database" doc:"Postgres reachability"`
		KV       string `json:"kv" doc:"Key-value store reachability"`
	}
}

func RegisterHealth(api huma.API, db *bun.DB, kvStore kv.Store) {
	huma.Register(api, huma.Operation{
		OperationID: "healthz",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
		Tags:        []string{TagOps.String()},
	}, func(ctx context.Context, input *struct{}) (*HealthResponse, error) {
		resp := &HealthResponse{Status: http.StatusOK}
		resp.Body.Status = "ok"
		resp.Body.Database = "ok"
		resp.Body.KV = "ok"

		if err := db.PingContext(ctx); err != nil {
			resp.Body.Database = err.Error()
		}
		if err := kvStore.Ping(ctx); err != nil {
			resp.Body.KV = err.Error()
		}
		if resp.Body.Database != "ok" || resp.Body.KV != "ok" {
			resp.Status = http.StatusServiceUnavailable
			resp.Body.Status = "degraded"
		}
		return resp, nil
	})
}
