package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/driveshare/marketing-dispatch/internal/app"
	"github.com/driveshare/marketing-dispatch/internal/config"
	httphandler "github.com/driveshare/marketing-dispatch/internal/delivery/http"
	"github.com/driveshare/marketing-dispatch/internal/delivery/kafka"
	"github.com/driveshare/marketing-dispatch/internal/logger"
	"github.com/driveshare/marketing-dispatch/internal/metrics"
	"github.com/driveshare/marketing-dispatch/internal/scheduler"
	"github.com/driveshare/marketing-dispatch/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang/glog"
	"github.com/twmb/franz-go/pkg/kgo"
)

func main() {
	logger.InitGlog()
	defer glog.Flush()

	cfg, err := config.Load()
	if err != nil {
		glog.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		glog.Fatalf("Failed to initialise campaign: %v", err)
	}
	defer a.Close()

	if err := a.Migrate(ctx, cfg); err != nil {
		glog.Fatalf("Failed to run migrations: %v", err)
	}

	wg := sync.WaitGroup{}

	var tracking usecase.TrackingGateway
	var kafkaClient *kgo.Client

	if cfg.TrackingEventsEnabled {
		kafkaClient, err = newConsumerClient(cfg.Brokers(), cfg.KafkaClientID, cfg.KafkaGroupID, kafka.TopicTrackingEvents)
		if err != nil {
			glog.Fatalf("Failed to create kafka client: %v", err)
		}

		if err := kafka.EnsureTopics(ctx, kafkaClient, cfg); err != nil {
			glog.Warningf("Failed to ensure topics: %v", err)
		}

		tracking = kafka.NewGateway(kafkaClient)

		consumer := kafka.NewConsumer(kafkaClient, a.Stats)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Start(ctx)
		}()
		<-consumer.Ready()
	} else {
		tracking = kafka.NewDirectGateway(a.Stats)
	}

	if cfg.CampaignSchedule > 0 {
		schedule := &scheduler.CampaignSchedule{Runner: a.Runner, Period: cfg.CampaignSchedule}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := schedule.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				glog.Errorf("Campaign schedule stopped: %v", err)
			}
		}()
	}

	handler := httphandler.NewHandler(a.Runner, a.Stats, tracking, cfg.APIKey, cfg.LandingURL)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := a.Pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	handler.Routes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}
	metricsServer := metrics.NewMetricsServer(cfg.MetricsAddress)

	wg.Add(2)
	go func() {
		defer wg.Done()
		glog.Infof("Starting server on port %s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("Server failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		glog.Infof("Starting metrics server on %s", cfg.MetricsAddress)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("Metrics server failed: %v", err)
		}
	}()

	<-ctx.Done()
	glog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("HTTP shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("Metrics shutdown error: %v", err)
	}

	if kafkaClient != nil {
		kafkaClient.Close()
	}

	wg.Wait()
	glog.Info("Shutdown complete")
}

func newConsumerClient(brokers []string, clientID, groupID string, topics ...string) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
}
