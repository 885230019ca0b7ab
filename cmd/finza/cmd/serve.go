package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/finza-app/finza/pkg/api"
	"github.com/finza-app/finza/pkg/api/config"
	"github.com/finza-app/finza/pkg/api/routes"
	"github.com/finza-app/finza/pkg/api/services"
	"github.com/finza-app/finza/pkg/api/services/iam"
	"github.com/finza-app/finza/pkg/db"
	"github.com/finza-app/finza/pkg/kv"
	"github.com/finza-app/finza/pkg/logx"
	"github.com/finza-app/finza/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the auth API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.ValidateEnv()
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	cfg.Print(log.Printf)

	logger := logx.NewDefault()

	database, err := db.New(ctx, db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	var store kv.Store
	redisStore, err := kv.NewRedisStore(kv.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		if !cfg.IsDev() {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		// Dev convenience only: state nonces don't survive a restart.
		logger.Warn("redis unreachable, using in-memory kv store", "error", err)
		store = kv.NewMemoryStore()
	} else {
		store = redisStore
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	svcs := services.NewServices(cfg, database, store, collector, logger)

	a := api.NewApi()
	a.Api.UseMiddleware(svcs.IAM.Middleware())
	routes.RegisterAPI(a.Api, svcs, cfg, database, store, logger)

	a.Router.Handle("/metrics", metrics.Handler(registry))

	// Browser-facing pages behind the gate. The real pages are served
	// by the web frontend; these stubs exist so the gate has something
	// to protect when the service runs standalone.
	a.Router.Group(func(r chi.Router) {
		r.Use(svcs.Gate.Middleware)
		r.Get("/auth/login", pageStub("login"))
		r.Get("/auth/register", pageStub("register"))
		r.Get("/auth/error", pageStub("error"))
		r.Get("/dashboard", principalStub)
		r.Get("/dashboard/*", principalStub)
	})

	addr := fmt.Sprintf(":%s", cfg.Port)

	log.Printf("🚀 finza auth starting on %s\n", addr)
	log.Printf("📚 OpenAPI docs: %s/docs\n", cfg.BaseURL)
	log.Printf("📄 OpenAPI spec: %s/openapi.json\n", cfg.BaseURL)
	log.Printf("🔐 Auth endpoints:\n")
	log.Printf("   - Email login: %s/api/auth/email", cfg.BaseURL)
	log.Printf("   - GitHub login: %s/api/auth/github", cfg.BaseURL)

	if err := http.ListenAndServe(addr, a.Router); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
	return nil
}

func pageStub(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"page": name})
	}
}

// principalStub echoes the gate-attached principal, proving the
// request passed authentication.
func principalStub(w http.ResponseWriter, r *http.Request) {
	p := iam.FromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"page":    r.URL.Path,
		"user_id": p.UserID,
		"email":   p.Email,
		"role":    p.Role,
	})
}
