package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"quiz-funnel/internal/app"
	"quiz-funnel/internal/config"
	"quiz-funnel/internal/content"
	"quiz-funnel/internal/infra/memory"
	pgloader "quiz-funnel/internal/infra/postgres"
	redisstore "quiz-funnel/internal/infra/redis"
	"quiz-funnel/internal/infra/sheets"
	transport "quiz-funnel/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the funnel server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	defaultFunnel, err := content.Default()
	if err != nil {
		return err
	}
	funnelID := cfg.Funnel.ID
	if funnelID == "" {
		funnelID = defaultFunnel.ID
	}
	sessionTTL := config.TTLDuration(cfg.Session.TTL, 24*time.Hour)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.FunnelLoader = memory.NewStaticFunnelLoader(defaultFunnel)
	if pool != nil {
		loader = pgloader.NewFunnelLoader(pool)
	}

	funnelTTL := config.TTLDuration(cfg.Funnel.TTL, 10*time.Minute)
	var funnelRepo app.FunnelRepository
	if redisClient != nil {
		funnelRepo = redisstore.NewFunnelRepository(redisClient, loader, funnelTTL)
	} else {
		funnelRepo = memory.NewFunnelRepository(loader, funnelTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, sessionTTL))
	} else {
		mem := memory.NewSessionStore()
		sweeper, err := scheduleSweep(mem, config.TTLDuration(cfg.Session.Sweep, 10*time.Minute), sessionTTL)
		if err != nil {
			return err
		}
		defer sweeper.Stop()
		store = mem
	}

	var sink app.LeadSink
	if client, ok := sheets.New(cfg.Sheets.URL, config.TTLDuration(cfg.Sheets.Timeout, 10*time.Second)); ok {
		sink = client
	} else {
		log.Printf("sheets url not configured, leads will be logged and dropped")
	}

	service := app.NewFunnelService(store, funnelRepo, sink, app.ServiceConfig{
		FunnelID: funnelID,
		Location: config.Location(cfg.Funnel.Location),
	})

	if cfg.Session.Secret == "" || cfg.Session.Secret == "change-me" {
		log.Printf("session secret not set, visitor cookies use an insecure default")
	}
	cookies := transport.NewCookieStore(cfg.Session.Secret, int(sessionTTL/time.Second))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, cookies),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting funnel %s on :%s", funnelID, finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return service.Close(shutdownCtx)
}

// scheduleSweep drops in-memory sessions idle for longer than maxIdle.
func scheduleSweep(store *memory.SessionStore, every, maxIdle time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc("@every "+every.String(), func() {
		if n := store.Sweep(maxIdle); n > 0 {
			log.Printf("swept %d idle sessions (%d live)", n, store.Len())
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
