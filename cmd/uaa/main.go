// uaa es el authorization server de la plataforma: emite tokens OAuth2
// para los clientes registrados.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/cache"
	cachemem "github.com/xianzhi-projects/xianzhi-uaa/internal/cache/memory"
	cacheredis "github.com/xianzhi-projects/xianzhi-uaa/internal/cache/redis"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/config"
	uaahttp "github.com/xianzhi-projects/xianzhi-uaa/internal/http"
	adminctrl "github.com/xianzhi-projects/xianzhi-uaa/internal/http/controllers/admin"
	healthctrl "github.com/xianzhi-projects/xianzhi-uaa/internal/http/controllers/health"
	oauthctrl "github.com/xianzhi-projects/xianzhi-uaa/internal/http/controllers/oauth"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/http/router"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/keys"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/metrics"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/grant"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/pipeline"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/registry"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/token"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth/userdetails"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/observability/logger"
	"github.com/xianzhi-projects/xianzhi-uaa/internal/store/pg"
)

var version = "dev"

func main() {
	// .env es opcional: en producción la config llega por entorno.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:   "uaa",
		Short: "Authorization server de la plataforma xianzhi",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "ruta del archivo de configuración")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor de emisión de tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("uaa", version)
		},
	}

	root.AddCommand(serveCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "uaa",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Clave de firma: una sola carga, inmutable de ahí en más.
	signer, err := keys.Load(cfg.Keystore.Path, cfg.Keystore.Alias, cfg.Keystore.Password)
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}
	log.Info("signing key loaded", logger.String("kid", signer.KID()))

	// Store
	pool, err := pg.NewPool(ctx, pg.Config{
		DSN:          cfg.Storage.DSN,
		MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}
	defer pool.Close()

	clientStore := pg.NewClientStore(pool)
	userStore := pg.NewUserStore(pool)
	authzStore := pg.NewAuthorizationStore(pool)

	// Cache
	var cacheClient cache.Cache
	switch cfg.Cache.Kind {
	case "redis":
		cacheClient = cacheredis.New(cacheredis.Config{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
	default:
		cacheClient = cachemem.New(cfg.MemoryTTL())
	}
	defer func() { _ = cacheClient.Close() }()

	// Registry de clientes + siembra inicial (una sola vez, antes de servir).
	clients := registry.New(clientStore, cacheClient)
	if cfg.BootstrapEnabled() {
		if err := clients.Bootstrap(ctx); err != nil {
			return fmt.Errorf("bootstrap default client: %w", err)
		}
	}

	// Pipeline de emisión
	identity := userdetails.NewService(userdetails.NewStoreResolver(userStore), authzStore)
	issuer := token.NewIssuer(token.IssuerDeps{
		Signer:     signer,
		Customizer: token.UserClaims(),
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	})
	pipe := pipeline.New(pipeline.Deps{
		Clients: clients,
		Grants: grant.NewRegistry(
			grant.NewPasswordAuthenticator(),
			grant.NewRefreshTokenAuthenticator(),
			grant.NewClientCredentialsAuthenticator(),
		),
		Identity:   identity,
		Generators: []token.Generator{issuer},
		Authz:      authzStore,
		IssuerURL:  cfg.Issuer.URL,
	})

	metricsHandler, err := metrics.Register(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	handler := router.New(router.Deps{
		Token:   oauthctrl.NewTokenController(pipe),
		Clients: adminctrl.NewClientsController(clients),
		Health: healthctrl.NewController(map[string]healthctrl.Pinger{
			"storage": pingerFunc(pool.Ping),
			"cache":   pingerFunc(cacheClient.Ping),
		}),
		Metrics:     metricsHandler,
		AdminAPIKey: cfg.Server.AdminAPIKey,
	})

	srv := uaahttp.NewServer(cfg.Server.Addr, handler)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	log.Info("server started", logger.String("addr", cfg.Server.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
