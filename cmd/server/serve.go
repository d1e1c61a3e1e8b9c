package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Gkemhcs/slidebox/internal/config"
	"github.com/Gkemhcs/slidebox/internal/connect"
	"github.com/Gkemhcs/slidebox/internal/db"
	"github.com/Gkemhcs/slidebox/internal/metrics"
	"github.com/Gkemhcs/slidebox/internal/oauth"
	"github.com/Gkemhcs/slidebox/internal/server"
	"github.com/Gkemhcs/slidebox/internal/session"
	"github.com/Gkemhcs/slidebox/internal/slides"
	"github.com/Gkemhcs/slidebox/internal/tokenstore"
	"github.com/Gkemhcs/slidebox/internal/utils"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := utils.New(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.InitDB(logger, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	m := metrics.New()
	store, closeStore, err := buildTokenStore(ctx, cfg, conn, m, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	if interval := cfg.PurgeInterval(); interval > 0 {
		go store.RunPurger(ctx, interval)
	}

	provider, err := oauth.ProviderByName(cfg.OAuthProvider)
	if err != nil {
		return err
	}
	client := oauth.NewClient(provider, cfg.ConsumerKey, cfg.ConsumerSecret, cfg.CallbackURL(), store, logger,
		oauth.WithTimeout(cfg.ProviderTimeout()))

	codec, err := session.NewCodec(session.Options{
		TTL:        cfg.CookieTTL(),
		Domain:     cfg.CookieDomain,
		Path:       cfg.CookiePath,
		CookieName: cfg.CookieName,
		Salt:       cfg.CookieSalt,
		Algorithm:  cfg.CookieHash,
	})
	if err != nil {
		return err
	}

	connectHandler := connect.NewConnectHandler(connect.NewConnectService(client, m, logger), codec, logger)
	slidesHandler := slides.NewSlidesHandler(slides.NewSlidesService(client, slides.DropboxEndpoints(), logger), logger)

	s := server.New(cfg, logger, conn, m)
	s.SetupRoutes(connectHandler, slidesHandler, codec, provider.Name == oauth.Dropbox)

	logger.WithFields(logrus.Fields{
		"provider": provider.Name,
		"db":       cfg.DBDriver,
		"cache":    cfg.CacheBackend,
	}).Info("slidebox configured")
	return s.Start(ctx)
}

// buildTokenStore wires the durable repository with the configured cache
// and optional at-rest encryption.
func buildTokenStore(ctx context.Context, cfg *config.Config, conn *sqlx.DB, m *metrics.Metrics, logger *logrus.Logger) (*tokenstore.Store, func(), error) {
	opts := []tokenstore.Option{tokenstore.WithPurgeObserver(m.TokensPurged)}
	closeFn := func() {}

	switch cfg.CacheBackend {
	case "redis":
		cache, err := tokenstore.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, tokenstore.WithCache(cache))
		closeFn = func() {
			if err := cache.Close(); err != nil {
				logger.WithField("error", err.Error()).Warn("Could not close redis cache")
			}
		}
	case "memory":
		opts = append(opts, tokenstore.WithCache(tokenstore.NewMemoryCache(cfg.CacheSize, tokenstore.TTL)))
	case "none", "":
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	if cfg.TokenEncryptionKey != "" {
		enc, err := utils.NewEncryptor(cfg.TokenEncryptionKey)
		if err != nil {
			return nil, nil, fmt.Errorf("token encryption key: %w", err)
		}
		opts = append(opts, tokenstore.WithSealer(enc))
	}

	return tokenstore.NewStore(tokenstore.NewSQLRepository(conn), logger, opts...), closeFn, nil
}
