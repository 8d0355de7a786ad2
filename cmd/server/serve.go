package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/soaringjerry/hrpulse/internal/api"
	"github.com/soaringjerry/hrpulse/internal/catalog"
	"github.com/soaringjerry/hrpulse/internal/config"
	"github.com/soaringjerry/hrpulse/internal/middleware"
	"github.com/soaringjerry/hrpulse/internal/services"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := buildHandler(cfg, store)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("hrpulse listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("commit", commit),
			zap.String("build_time", buildTime))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildHandler(cfg *config.Config, store api.Store) http.Handler {
	auth := middleware.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.CookieName, cfg.Auth.SecureCookie)
	aiCfg := services.AIConfig{
		APIKey:   cfg.AI.APIKey,
		BaseURL:  cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
		Timeout:  cfg.AI.Timeout,
		Language: cfg.AI.Language,
	}
	opts := api.Options{
		Auth:       auth,
		Catalog:    catalog.Default(),
		AIConfig:   aiCfg,
		SessionTTL: cfg.Auth.SessionTTL,
		Logger:     logger,
	}
	// a nil *openai.Client must not end up in the interface
	if client := services.NewOpenAIClient(aiCfg, &http.Client{Timeout: cfg.AI.Timeout}); client != nil {
		opts.AI = client
	} else {
		logger.Warn("ai.api_key is empty; AI endpoints will fail")
	}

	mux := http.NewServeMux()
	api.NewRouter(store, opts).Register(mux)
	mountFrontend(mux, cfg.Server)

	var h http.Handler = mux
	h = middleware.RequestLogger(logger)(h)
	h = auth.WithAuth(h)
	h = middleware.LocaleMiddleware(h)
	h = middleware.CORS(cfg.Server.CORSOrigins)(h)
	h = middleware.NoStore(h)
	h = middleware.SecureHeaders(h)
	h = middleware.Recover(logger)(h)
	return h
}

// mountFrontend serves the built UI from static_dir, or proxies to a dev
// server when dev_frontend_url is set.
func mountFrontend(mux *http.ServeMux, sc config.ServerConfig) {
	if sc.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(sc.StaticDir)))
		return
	}
	if sc.DevFrontendURL == "" {
		return
	}
	u, err := url.Parse(sc.DevFrontendURL)
	if err != nil {
		logger.Warn("invalid server.dev_frontend_url", zap.String("url", sc.DevFrontendURL), zap.Error(err))
		return
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ModifyResponse = func(res *http.Response) error {
		res.Header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		res.Header.Set("Pragma", "no-cache")
		res.Header.Set("Expires", "0")
		return nil
	}
	mux.Handle("/", rp)
}
