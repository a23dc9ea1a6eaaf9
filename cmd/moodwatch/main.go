package main

//	@title						Moodwatch API
//	@version					0.1.0
//	@description				Mood tracking and emergency alerting API.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/HerbHall/moodwatch/api/swagger"
	"github.com/HerbHall/moodwatch/internal/auth"
	"github.com/HerbHall/moodwatch/internal/chat"
	"github.com/HerbHall/moodwatch/internal/config"
	"github.com/HerbHall/moodwatch/internal/contact"
	"github.com/HerbHall/moodwatch/internal/emergency"
	"github.com/HerbHall/moodwatch/internal/event"
	"github.com/HerbHall/moodwatch/internal/mood"
	"github.com/HerbHall/moodwatch/internal/notify"
	"github.com/HerbHall/moodwatch/internal/sentiment"
	"github.com/HerbHall/moodwatch/internal/server"
	"github.com/HerbHall/moodwatch/internal/store"
	"github.com/HerbHall/moodwatch/internal/version"
	"github.com/HerbHall/moodwatch/internal/webhook"
	"github.com/HerbHall/moodwatch/internal/ws"
	"github.com/HerbHall/moodwatch/pkg/plugin"
	"go.uber.org/zap"
)

func main() {
	// Subcommand dispatch (before flag.Parse).
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "token":
			runToken(os.Args[2:])
			return
		case "version":
			fmt.Println(version.Info())
			return
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("moodwatch server starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	dbPath := viperCfg.GetString("database.path")
	if dbPath == "" {
		dbPath = "moodwatch.db"
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		logger.Fatal("database version check failed", zap.Error(err))
	}
	for _, migrate := range []func(context.Context, plugin.Store) error{
		contact.Migrate,
		mood.Migrate,
		chat.Migrate,
	} {
		if err := migrate(ctx, db); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", dbPath),
	)

	bus := event.NewBus(logger.Named("event"))

	tokens := newTokenService(viperCfg.GetString("auth.jwt_secret"), viperCfg.GetDuration("auth.token_ttl"), logger)

	// SMS delivery. Missing credentials leave the scheduler uninitialized.
	var twilioCfg notify.TwilioConfig
	if err := cfg.Sub("twilio").Unmarshal(&twilioCfg); err != nil {
		logger.Fatal("invalid twilio configuration", zap.Error(err))
	}
	var sender notify.Sender = notify.Disabled{}
	if ts, err := notify.NewFromConfig(twilioCfg, logger.Named("notify")); err != nil {
		logger.Warn("twilio credentials missing or invalid, emergency SMS disabled",
			zap.String("component", "notify"),
			zap.Error(err),
		)
	} else {
		sender = ts
	}

	var aiCfg sentiment.Config
	if err := cfg.Sub("ai").Unmarshal(&aiCfg); err != nil {
		logger.Fatal("invalid ai configuration", zap.Error(err))
	}
	aiClient := sentiment.New(aiCfg, logger.Named("sentiment"))
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := aiClient.Ping(pingCtx); err != nil {
		logger.Warn("ai service unreachable, chat and mood analysis will use fallbacks",
			zap.String("component", "sentiment"),
			zap.Error(err),
		)
	}
	pingCancel()

	contactStore := contact.NewStore(db.DB())
	moodStore := mood.NewStore(db.DB())
	chatStore := chat.NewStore(db.DB())

	monitorCfg := emergency.DefaultMonitorConfig()
	if err := cfg.Sub("emergency").Unmarshal(&monitorCfg); err != nil {
		logger.Fatal("invalid emergency configuration", zap.Error(err))
	}
	monitor, err := emergency.NewMonitor(monitorCfg, moodStore, contactStore, sender,
		logger.Named("emergency"), emergency.WithEvents(bus))
	if err != nil {
		logger.Fatal("failed to create emergency monitor", zap.Error(err))
	}
	scheduler, err := emergency.NewScheduler(monitor, logger.Named("scheduler"))
	if err != nil {
		logger.Fatal("failed to create emergency scheduler", zap.Error(err))
	}
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("failed to start emergency scheduler", zap.Error(err))
	}

	var hookCfg webhook.Config
	if err := cfg.Sub("webhook").Unmarshal(&hookCfg); err != nil {
		logger.Fatal("invalid webhook configuration", zap.Error(err))
	}
	forwarder := webhook.New(hookCfg, logger.Named("webhook"))
	unsubscribeWebhook := forwarder.Subscribe(bus)
	defer unsubscribeWebhook()

	wsHandler := ws.NewHandler(tokens, logger.Named("ws"))
	unsubscribeWS := wsHandler.Subscribe(bus)
	defer unsubscribeWS()

	inline := monitor.Inline()
	providers := []plugin.HTTPProvider{
		contact.NewHandler(contactStore, logger.Named("contact")),
		mood.NewHandler(moodStore, aiClient, inline, logger.Named("mood")),
		chat.NewHandler(chatStore, aiClient, inline, logger.Named("chat")),
		emergency.NewHandler(monitor, scheduler, logger.Named("emergency")),
	}

	var srvCfg server.Config
	if srvCfg, err = server.ConfigFrom(cfg.Sub("server")); err != nil {
		logger.Fatal("invalid server configuration", zap.Error(err))
	}
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	srv := server.New(server.Options{
		Addr:       srvCfg.Addr(),
		Providers:  providers,
		Extra:      []server.RouteRegistrar{wsHandler},
		Ready:      readyCheck,
		Auth:       auth.AuthMiddleware(tokens),
		DevMode:    srvCfg.DevMode,
		TrustProxy: srvCfg.TrustProxy,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("moodwatch server ready",
		zap.String("addr", srvCfg.Addr()),
		zap.Stringer("scheduler", scheduler.State()),
	)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	bus.Drain()

	logger.Info("moodwatch server stopped")
}

// newTokenService builds the token service, generating an ephemeral secret
// when none is configured.
func newTokenService(secret string, ttl time.Duration, logger *zap.Logger) *auth.TokenService {
	if secret == "" {
		// Tokens won't survive restarts.
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			logger.Fatal("failed to generate JWT secret", zap.Error(err))
		}
		secret = hex.EncodeToString(b)
		logger.Info("using auto-generated JWT secret (set auth.jwt_secret in config to keep tokens valid across restarts)",
			zap.String("component", "auth"),
		)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return auth.NewTokenService([]byte(secret), ttl)
}

// runToken prints an access token for a user, signed with the configured
// secret. Useful for local testing against a running server.
func runToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: moodwatch token [-config path] <user-id>")
		os.Exit(2)
	}

	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	secret := v.GetString("auth.jwt_secret")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "auth.jwt_secret is not set; a token signed now would not validate against the server")
		os.Exit(1)
	}

	ttl := v.GetDuration("auth.token_ttl")
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := auth.NewTokenService([]byte(secret), ttl).IssueAccessToken(fs.Arg(0))
	if errors.Is(err, auth.ErrMissingSubject) {
		fmt.Fprintln(os.Stderr, "user id must not be empty")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
