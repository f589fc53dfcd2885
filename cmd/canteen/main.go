package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"canteen/internal/backend"
	"canteen/internal/config"
	apphttp "canteen/internal/http"
	"canteen/internal/log"
	"canteen/internal/notify/whatsapp"
	"canteen/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     cfg.SlogLevel(),
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("canteen stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	loc := cfg.Location()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		return err
	}
	defer func() {
		if res.Cleanup == nil {
			return
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	// Publishers stay nil interfaces when events are off.
	var (
		expensePublisher services.ExpensePublisher
		reportPublisher  services.ReportPublisher
	)
	if res.Events != nil {
		expensePublisher = res.Events
		reportPublisher = res.Events
	}

	notifier := whatsapp.NewClient(whatsapp.Config{
		BaseURL:          cfg.WABAAPIBaseURL,
		APIVersion:       cfg.WABAAPIVersion,
		PhoneNumberID:    cfg.WABAPhoneNumberID,
		AccessToken:      cfg.WABAAccessToken,
		TemplateName:     cfg.WABATemplateName,
		TemplateLanguage: cfg.WABATemplateLanguage,
		CurrencySymbol:   cfg.CurrencySymbol,
		DefaultRegion:    cfg.ReportRecipientRegion,
		Timeout:          cfg.NotifyTimeout,
	})
	if !notifier.Configured() {
		logger.Warn("WhatsApp credentials missing, report runs will fail until WABA_ACCESS_TOKEN and WABA_PHONE_NUMBER_ID are set")
	}

	expenses := services.NewExpenseService(res.Store, expensePublisher)
	aggregator := services.NewAggregator(res.Store, res.Store, loc)
	reports := services.NewReportService(aggregator, notifier, res.Store, reportPublisher, cfg.ReportRecipient)

	if cfg.CronSecret == "" {
		logger.Warn("CRON_SECRET is empty, the report trigger endpoint accepts unauthenticated calls")
	}

	var runner services.Runner = reports
	if cfg.ReportBaseURL != "" {
		runner = services.NewHTTPTrigger(cfg.ReportBaseURL, cfg.CronSecret, cfg.NotifyTimeout+30*time.Second, loc)
		logger.Info("Scheduler fires through the report endpoint", "base_url", cfg.ReportBaseURL)
	}

	scheduler, err := services.NewScheduler(runner, services.SchedulerConfig{
		Enabled:  cfg.EnableCron,
		At:       cfg.ReportTime,
		Location: loc,
	})
	if err != nil {
		return err
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:       expenses,
		Aggregator:     aggregator,
		Reports:        reports,
		Pinger:         res.Pinger,
		CronSecret:     cfg.CronSecret,
		Logger:         logger,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting canteen server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", res.Events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return startScheduler(gctx, scheduler, logger)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return errors.Join(scheduler.Stop(shutdownCtx), srv.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

// startScheduler arms the daily timer. A scheduler that is already armed is
// logged and left running rather than failing the process.
func startScheduler(ctx context.Context, scheduler *services.Scheduler, logger *log.Logger) error {
	if err := scheduler.Start(ctx); err != nil {
		if errors.Is(err, services.ErrSchedulerAlreadyStarted) {
			logger.WarnContext(ctx, "Report scheduler already started, keeping the armed timer")
			return nil
		}
		return err
	}
	if next := scheduler.NextRun(); !next.IsZero() {
		logger.InfoContext(ctx, "Next daily report scheduled", log.FieldNextRun, next.Format(time.RFC3339))
	}
	return nil
}
