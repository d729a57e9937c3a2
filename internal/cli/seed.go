package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-funnel/internal/config"
	"quiz-funnel/internal/content"
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/infra/memory"
	"quiz-funnel/internal/infra/postgres"
	redisstore "quiz-funnel/internal/infra/redis"
)

// NewSeedCmd upserts funnel content into Postgres, the embedded default
// unless --file points at another YAML document.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store funnel content in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			funnel, err := seedContent(file)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}

			db := postgres.OpenBun(cfg.Postgres.URL)
			defer db.Close()
			if err := postgres.SeedFunnel(cmd.Context(), db, funnel); err != nil {
				return err
			}
			log.Printf("seeded funnel %s (%d questions)", funnel.ID, len(funnel.Questions))
			return refreshCache(cmd.Context(), cfg, funnel)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "funnel YAML to seed instead of the built-in content")
	return cmd
}

func seedContent(file string) (domain.Funnel, error) {
	if file == "" {
		return content.Default()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return domain.Funnel{}, err
	}
	return content.Parse(data)
}

// refreshCache replaces the redis copy of the funnel so running servers pick
// up reseeded content without waiting out the cache TTL.
func refreshCache(ctx context.Context, cfg config.Config, funnel domain.Funnel) error {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	repo := redisstore.NewFunnelRepository(client, memory.NewStaticFunnelLoader(funnel),
		config.TTLDuration(cfg.Funnel.TTL, 10*time.Minute))
	if err := repo.Invalidate(ctx, funnel.ID); err != nil {
		return fmt.Errorf("invalidate cached funnel: %w", err)
	}
	if _, err := repo.GetFunnel(ctx, funnel.ID); err != nil {
		return fmt.Errorf("warm funnel cache: %w", err)
	}
	log.Printf("refreshed cached funnel %s", funnel.ID)
	return nil
}
