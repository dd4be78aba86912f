package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/tripledger/internal/admin"
	"github.com/mmynk/tripledger/internal/auth"
	"github.com/mmynk/tripledger/internal/config"
	"github.com/mmynk/tripledger/internal/middleware"
	"github.com/mmynk/tripledger/internal/scanner"
	"github.com/mmynk/tripledger/internal/server"
	"github.com/mmynk/tripledger/internal/storage/sqlite"
	"github.com/mmynk/tripledger/pkg/logging"
)

func main() {
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authn := auth.NewAdminAuthenticator(cfg.AdminPasswordHash, tokens)
	adminSvc := admin.NewService(store)

	var scan *scanner.Client
	if cfg.GeminiAPIKey != "" {
		scan = scanner.New(cfg.GeminiAPIKey)
		slog.Info("Receipt scanning enabled")
	} else {
		scan = scanner.New("")
		slog.Warn("GEMINI_API_KEY not set, receipt scanning disabled")
	}

	srv := server.New(store, adminSvc, authn, scan)
	defer srv.Close()

	mux := http.NewServeMux()
	mux.Handle("/", srv.Routes())
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.Logging(middleware.CORS(middleware.Metrics(mux)))

	// h2c keeps HTTP/2 available without TLS for local deployments.
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
