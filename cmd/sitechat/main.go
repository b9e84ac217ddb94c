package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/castlebay/sitechat"
	"github.com/castlebay/sitechat/browse"
	"github.com/castlebay/sitechat/dbopen"
)

func main() {
	port := env("PORT", "8090")
	dbPath := env("DB_PATH", "db/sitechat.db")
	configFile := env("CONFIG_FILE", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Config: YAML file first, env overrides.
	cfg, err := sitechat.LoadConfig(configFile)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	applyEnv(cfg)

	// Database.
	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Browser. SKIP_BROWSER=1 runs the API against an existing index
	// without launching Chrome.
	var opener browse.PageOpener
	if os.Getenv("SKIP_BROWSER") == "" {
		cfg.Browser.Logger = logger
		mgr := browse.NewManager(cfg.Browser)
		if err := mgr.Start(ctx); err != nil {
			slog.Error("start browser", "error", err)
			os.Exit(1)
		}
		defer mgr.Close()

		session, err := mgr.NewSession()
		if err != nil {
			slog.Error("browser session", "error", err)
			os.Exit(1)
		}
		opener = session
	} else {
		slog.Warn("browser disabled, indexing unavailable")
	}

	svc, err := sitechat.New(db, opener, cfg, logger)
	if err != nil {
		slog.Error("service", "error", err)
		os.Exit(1)
	}
	svc.Start(ctx)

	// Optional MCP over stdio for agent integrations.
	if os.Getenv("MCP_TRANSPORT") == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "sitechat",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP server", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("sitechat listening", "port", port, "seed", cfg.SeedURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}

// applyEnv overlays environment settings on the file config.
func applyEnv(cfg *sitechat.Config) {
	if v := os.Getenv("SEED_URL"); v != "" {
		cfg.SeedURL = v
	}
	if v := os.Getenv("CRAWL_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CrawlDepth = n
		}
	}
	if v := os.Getenv("CRAWL_ALLOW_PRIVATE"); v == "1" || v == "true" {
		cfg.CrawlAllowPrivate = true
	}
	if v := os.Getenv("EMBED_ENDPOINT"); v != "" {
		cfg.Embed.Endpoint = v
	}
	if v := os.Getenv("EMBED_API_KEY"); v != "" {
		cfg.Embed.APIKey = v
	}
	if v := os.Getenv("EMBED_MODEL"); v != "" {
		cfg.Embed.Model = v
	}
	if v := os.Getenv("GENAI_ENDPOINT"); v != "" {
		cfg.GenAI.Endpoint = v
	}
	if v := os.Getenv("GENAI_API_KEY"); v != "" {
		cfg.GenAI.APIKey = v
	}
	if v := os.Getenv("GENAI_MODEL"); v != "" {
		cfg.GenAI.Model = v
	}
	if v := os.Getenv("CHROME_URL"); v != "" {
		cfg.Browser.RemoteURL = v
	}
	if v := os.Getenv("EMBED_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EmbedRetry.Attempts = n
		}
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
