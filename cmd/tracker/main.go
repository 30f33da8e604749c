package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/trogers1052/metal-price-tracker/internal/api"
	"github.com/trogers1052/metal-price-tracker/internal/cache"
	"github.com/trogers1052/metal-price-tracker/internal/config"
	"github.com/trogers1052/metal-price-tracker/internal/database"
	"github.com/trogers1052/metal-price-tracker/internal/kafka"
	"github.com/trogers1052/metal-price-tracker/internal/logx"
	"github.com/trogers1052/metal-price-tracker/internal/metrics"
	"github.com/trogers1052/metal-price-tracker/internal/models"
	"github.com/trogers1052/metal-price-tracker/internal/notify"
	"github.com/trogers1052/metal-price-tracker/internal/pipeline"
	"github.com/trogers1052/metal-price-tracker/internal/quote"
	"github.com/trogers1052/metal-price-tracker/internal/scheduler"
)

var errRunFailed = errors.New("run failed")

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	once := flag.Bool("once", false, "run the pipeline once and exit")
	trigger := flag.Bool("trigger", false, "publish a run request to the trigger topic and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", logx.Error(err))
		os.Exit(1)
	}

	log := logx.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	ctx = logx.WithLogger(ctx, log)

	switch {
	case *trigger:
		err = requestRun(ctx, cfg)
	case *once:
		err = run(ctx, cfg, true)
	default:
		err = run(ctx, cfg, false)
	}

	if err != nil {
		log.Error("tracker failed", logx.Error(err))
		os.Exit(1)
	}
}

// requestRun asks whichever instance consumes the trigger topic to run
func requestRun(ctx context.Context, cfg *config.Config) error {
	if !cfg.Kafka.KafkaEnabled() {
		return errors.New("-trigger requires KAFKA_BROKERS")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TriggerTopic)
	defer producer.Close()

	host, _ := os.Hostname()
	if err := producer.RequestRun(ctx, host); err != nil {
		return err
	}

	logx.FromContext(ctx).Info("run requested", logx.FieldTopic, cfg.Kafka.TriggerTopic)
	return nil
}

func run(ctx context.Context, cfg *config.Config, once bool) error {
	log := logx.FromContext(ctx)

	if err := cfg.Validate(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsDir); err != nil {
		return err
	}
	log.Info("database ready")

	// Quote source
	source, err := quote.NewGeminiSource(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Prompt, cfg.Gemini.Timeout)
	if err != nil {
		return err
	}
	converter, err := quote.NewConverter(cfg.Quote.Unit, cfg.Quote.FXRate)
	if err != nil {
		return err
	}

	// Notification transports
	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		return err
	}

	// Cache
	priceCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer priceCache.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	opts := pipeline.Options{
		Source:      source,
		Store:       db,
		Notifier:    dispatcher,
		Recipients:  cfg.Recipients(),
		MaxAttempts: cfg.Quote.MaxAttempts,
		Converter:   converter,
		Location:    loc,
		Cache:       priceCache,
		Observer:    m,
	}

	if cfg.Kafka.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		opts.Publisher = producer
	}

	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	if once {
		out := p.Run(ctx, pipeline.TriggerCLI)
		if !out.OK() {
			return fmt.Errorf("%w: %s", errRunFailed, out.Summary)
		}
		return nil
	}

	return serve(ctx, cfg, loc, db, priceCache, p)
}

func serve(ctx context.Context, cfg *config.Config, loc *time.Location, db *database.DB, priceCache cache.PriceCache, p *pipeline.Pipeline) error {
	g, ctx := errgroup.WithContext(ctx)

	handler := api.NewHandler(db, priceCache, p.Run)
	server := api.NewServer(net.JoinHostPort(cfg.Server.Host, cfg.Server.Port), api.SetupRoutes(handler, prometheus.DefaultGatherer))
	g.Go(func() error { return server.Run(ctx) })

	sched, err := scheduler.New(cfg.Schedule.Cron, loc, func(ctx context.Context) {
		p.Run(ctx, pipeline.TriggerCron)
	})
	if err != nil {
		return err
	}
	g.Go(func() error { return sched.Run(ctx) })

	if cfg.Kafka.KafkaEnabled() {
		consumer := kafka.NewTriggerConsumer(cfg.Kafka.Brokers, cfg.Kafka.TriggerTopic, cfg.Kafka.GroupID,
			func(ctx context.Context, requestedBy string) error {
				logx.FromContext(ctx).Info("run requested", slog.String("requested-by", requestedBy))
				if out := p.Run(ctx, pipeline.TriggerKafka); !out.OK() {
					return fmt.Errorf("%w: %s", errRunFailed, out.Summary)
				}
				return nil
			})
		g.Go(func() error { return consumer.Start(ctx) })
	}

	if cfg.Schedule.RunOnStart {
		g.Go(func() error {
			p.Run(ctx, pipeline.TriggerStart)
			return nil
		})
	}

	logx.FromContext(ctx).Info("tracker started",
		slog.String("schedule", cfg.Schedule.Cron),
		slog.Int("recipients", len(cfg.Recipients())),
	)

	if err := g.Wait(); err != nil {
		return err
	}

	logx.FromContext(ctx).Info("tracker stopped")
	return nil
}

func newDispatcher(cfg *config.Config) (*notify.Dispatcher, error) {
	router := notify.NewRouter()

	if cfg.Twilio.AccountSID != "" {
		router.Handle(models.ChannelSMS, notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken))
	}
	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegramSender(cfg.Telegram.BotToken)
		if err != nil {
			return nil, err
		}
		router.Handle(models.ChannelTelegram, tg)
	}

	return notify.NewDispatcher(router, cfg.Twilio.From, notify.WithConcurrency(cfg.Notify.MaxConcurrency)), nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.PriceCache, error) {
	if cfg.Redis.Address == "" {
		return cache.NewMemory(cfg.Redis.TTL), nil
	}

	return cache.NewRedis(ctx, cache.RedisOptions{
		Address:  cfg.Redis.Address,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
}
