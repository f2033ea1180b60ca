// Package app assembles the campaign components from configuration.
package app

import (
	"context"

	"github.com/driveshare/marketing-dispatch/internal/config"
	"github.com/driveshare/marketing-dispatch/internal/content"
	"github.com/driveshare/marketing-dispatch/internal/provider"
	"github.com/driveshare/marketing-dispatch/internal/repository"
	"github.com/driveshare/marketing-dispatch/internal/usecase"
	"github.com/golang/glog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// App holds the wired campaign components shared by the server and the CLI.
type App struct {
	Pool   *pgxpool.Pool
	Stats  *usecase.StatsRecorder
	Runner *usecase.CampaignRunner
}

// New connects to the database and builds the runner for cfg. Close releases
// the pool.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := NewRenderer(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	gateway, err := provider.New(ctx, cfg, renderer)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "building email provider")
	}

	store := repository.New(pool)
	stats := usecase.NewStatsRecorder(store, cfg.Location())
	contexts := content.NewContextBuilder(cfg.PublicBaseURL, cfg.LandingURL, cfg.EmailFromName)
	runner := usecase.NewCampaignRunner(usecase.NewRecipientClaimer(store), gateway, stats, contexts, cfg.DailyLimit())

	glog.Infof("Campaign wired: provider=%s daily_limit=%d timezone=%s", gateway.Provider(), cfg.DailyLimit(), cfg.Location())

	return &App{
		Pool:   pool,
		Stats:  stats,
		Runner: runner,
	}, nil
}

func (a *App) Close() {
	a.Pool.Close()
}

// Migrate applies the schema files in cfg.DBMigrationsDir.
func (a *App) Migrate(ctx context.Context, cfg *config.Config) error {
	n, err := repository.RunMigrations(ctx, a.Pool, cfg.DBMigrationsDir)
	if err != nil {
		return errors.Wrap(err, "running migrations")
	}
	glog.Infof("Applied %d migration file(s)", n)
	return nil
}

func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, errors.Wrap(err, "unable to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "unable to ping database")
	}
	return pool, nil
}

// NewRenderer loads the campaign templates. CAMPAIGN_SUBJECT replaces the
// subject of the loaded set.
func NewRenderer(cfg *config.Config) (*content.Renderer, error) {
	templates, err := content.LoadTemplates(cfg.CampaignTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "loading campaign templates")
	}
	if cfg.CampaignSubject != "" {
		templates.Subject = cfg.CampaignSubject
	}

	renderer, err := content.NewRenderer(templates)
	if err != nil {
		return nil, errors.Wrap(err, "parsing campaign templates")
	}
	return renderer, nil
}
