package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/fieldline/intake-ai/cmd/mainconfig"
	"github.com/fieldline/intake-ai/internal/archive"
	"github.com/fieldline/intake-ai/internal/calendar"
	appconfig "github.com/fieldline/intake-ai/internal/config"
	"github.com/fieldline/intake-ai/internal/dialog"
	"github.com/fieldline/intake-ai/internal/httpapi"
	"github.com/fieldline/intake-ai/internal/leads"
	"github.com/fieldline/intake-ai/internal/llm"
	"github.com/fieldline/intake-ai/internal/maps"
	"github.com/fieldline/intake-ai/internal/notify"
	appmetrics "github.com/fieldline/intake-ai/internal/observability/metrics"
	"github.com/fieldline/intake-ai/internal/scheduling"
	"github.com/fieldline/intake-ai/internal/telephony"
	"github.com/fieldline/intake-ai/pkg/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting intake-ai API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		logger.Error("invalid business timezone", "tz", cfg.BusinessTimezone, "error", err)
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// LLM providers: Gemini primary, Bedrock fallback. Either may be
	// absent; with neither, classification and duration estimates run on
	// keyword rules alone.
	var llmClient llm.Client
	var llmModel string
	var geminiClient *llm.GeminiClient
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		llmClient = geminiClient
		llmModel = cfg.GeminiModelID
	}
	if cfg.BedrockModelID != "" {
		bedrock := llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg))
		if llmClient == nil {
			llmClient = bedrock
			llmModel = cfg.BedrockModelID
		} else {
			llmClient = llm.NewFallbackClient(llmClient, bedrock, cfg.BedrockModelID, logger)
		}
	}

	// Scheduling collaborators.
	var mapper scheduling.Mapper
	var geocoder scheduling.Geocoder
	if cfg.GoogleMapsAPIKey != "" {
		mapsClient, err := maps.NewClient(cfg.GoogleMapsAPIKey, logger, maps.ClientOptions{Timeout: cfg.MappingTimeout})
		if err != nil {
			logger.Error("failed to create maps client", "error", err)
			os.Exit(1)
		}
		mapper, geocoder = mapsClient, mapsClient
	}

	var diary scheduling.Calendar
	if cfg.GoogleCredentialsJSON != "" {
		diary, err = calendar.NewGoogleCalendar(ctx, []byte(cfg.GoogleCredentialsJSON), cfg.GoogleCalendarID, logger)
		if err != nil {
			logger.Error("failed to create calendar client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("no calendar credentials, using in-memory calendar")
		diary = calendar.NewMemoryCalendar()
	}

	var advisor scheduling.DurationAdvisor
	if llmClient != nil {
		advisor = scheduling.NewLLMDurationAdvisor(llmClient, llmModel, logger)
	}

	// Metrics.
	registry := prometheus.NewRegistry()
	metrics := appmetrics.New(registry)

	hours := scheduling.NewBusinessHours(cfg.BusinessTimezone, cfg.BusinessOpenHour, cfg.BusinessCloseHour)
	estimator := scheduling.NewJobDurationEstimator(advisor, cfg.LLMTimeout, logger)
	travel := scheduling.NewTravelEstimator(mapper, geocoder, scheduling.TravelEstimatorOptions{
		AvgSpeedKmh:    cfg.AverageSpeedKmh,
		DefaultMinutes: cfg.DefaultTravelMins,
		Timeout:        cfg.MappingTimeout,
		CacheTTL:       cfg.TravelCacheTTL,
		DepotAddress:   cfg.DepotAddress,
		DepotCoords:    scheduling.Coordinates{Lat: cfg.DepotLat, Lng: cfg.DepotLng},
	}, logger)
	generator := scheduling.NewSlotGenerator(hours)
	generator.Granularity = cfg.SlotGranularity
	generator.LookaheadDays = cfg.LookaheadDays
	engine := scheduling.NewEngine(
		estimator,
		travel,
		generator,
		scheduling.NewSlotScorer(hours),
		diary,
		hours,
		scheduling.EngineOptions{
			DepotAddress:       cfg.DepotAddress,
			CalendarTimeout:    cfg.CalendarTimeout,
			SlotSearchObserver: metrics.ObserveSlotSearch,
		},
		logger,
	)

	// Transcript store.
	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(redisOpts)
	transcripts := archive.NewTranscriptStore(rdb, 0)

	// Leads ledger.
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	leadsRepo := leads.NewRepository(pool, logger)

	// Telephony.
	var responder dialog.Responder
	var smsSender notify.SMSSender
	var telnyxClient *telephony.TelnyxClient
	if cfg.TelnyxAPIKey != "" {
		telnyxClient, err = telephony.NewTelnyxClient(cfg.TelnyxAPIKey, cfg.TelnyxFromNumber, logger, telephony.TelnyxOptions{Voice: cfg.TelnyxVoice})
		if err != nil {
			logger.Error("failed to create telnyx client", "error", err)
			os.Exit(1)
		}
		responder = telnyxClient
		smsSender = telnyxClient
	} else {
		logger.Warn("no telnyx api key, voice and sms disabled")
	}

	// Notifications.
	var emailSender notify.EmailSender
	switch {
	case cfg.EmailProvider == "sendgrid" || (cfg.EmailProvider == "auto" && cfg.SendGridAPIKey != ""):
		emailSender, err = notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFromName, cfg.SendGridFromEmail)
	case cfg.EmailProvider == "ses" || (cfg.EmailProvider == "auto" && cfg.SendGridFromEmail != ""):
		emailSender, err = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), cfg.SendGridFromEmail)
	default:
		logger.Warn("no email provider configured, email notifications disabled")
	}
	if err != nil {
		logger.Error("failed to create email sender", "error", err)
		os.Exit(1)
	}
	notifier := notify.NewService(logger, notify.ServiceOptions{
		Email:         emailSender,
		SMS:           smsSender,
		OperatorEmail: cfg.OperatorEmail,
		OperatorPhone: cfg.OperatorPhone,
	})

	// Utterance queue.
	var queue dialog.Queue
	if cfg.UseMemoryQueue || cfg.UtteranceQueueURL == "" {
		logger.Info("using in-memory utterance queue")
		queue = dialog.NewMemoryQueue(256)
	} else {
		queue, err = dialog.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.UtteranceQueueURL)
		if err != nil {
			logger.Error("failed to create sqs queue", "error", err)
			os.Exit(1)
		}
	}

	// Call archive.
	var archiver dialog.Archiver
	var s3store *archive.S3Store
	if cfg.ArchiveBucket != "" {
		s3store, err = archive.NewS3Store(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket, logger)
		if err != nil {
			logger.Error("failed to create archive store", "error", err)
			os.Exit(1)
		}
		archiver = s3store
	} else {
		logger.Warn("no archive bucket, call archival disabled")
	}

	// Dialogue machine and workers.
	classifier := dialog.NewCompositeClassifier(primaryClassifier(llmClient, llmModel), cfg.LLMTimeout, logger, metrics.ObserveLLMFallback)
	machine := dialog.NewMachine(classifier, engine, logger, dialog.MachineOptions{
		Notifier: notifier,
		Leads:    leadsRepo,
		Metrics:  metrics,
		Location: loc,
	})

	store := dialog.NewSessionStore()
	worker := dialog.NewWorker(queue, machine, store, logger, dialog.WorkerOptions{
		Responder:  responder,
		Archiver:   archiver,
		Transcript: transcripts,
	})
	for i := 0; i < cfg.WorkerCount; i++ {
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("worker stopped", "error", err)
			}
		}()
	}

	// Abandoned calls: prune idle sessions and archive what was collected.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, stale := range store.PruneIdle(30 * time.Minute) {
					if s3store != nil {
						if err := s3store.ArchiveCall(ctx, stale); err != nil {
							logger.Warn("archive of idle session failed", "call_id", stale.ID, "error", err)
						}
					}
					logger.Info("pruned idle session", "call_id", stale.ID)
				}
			}
		}
	}()

	// HTTP surface.
	var verifier *telephony.WebhookVerifier
	if cfg.TelnyxWebhookSecret != "" {
		verifier = telephony.NewWebhookVerifier(cfg.TelnyxWebhookSecret, 0)
	}
	voiceCfg := httpapi.VoiceHandlerConfig{
		Queue:         queue,
		Worker:        worker,
		Greeting:      machine.Greeting(),
		Logger:        logger,
		OnCallStarted: metrics.ObserveCallStarted,
	}
	if telnyxClient != nil {
		voiceCfg.Telnyx = telnyxClient
	}
	if verifier != nil {
		voiceCfg.Verifier = verifier
	}

	routerCfg := httpapi.RouterConfig{
		Logger:          logger,
		Admin:           httpapi.NewAdminHandler(transcripts, leadsRepo, logger),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	if telnyxClient != nil {
		routerCfg.Voice = httpapi.NewVoiceHandler(voiceCfg)
	}
	router := httpapi.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if geminiClient != nil {
		geminiClient.Close()
	}
	logger.Info("shutdown complete")
}

// primaryClassifier returns the LLM classification strategy, or nil when no
// provider is configured so the composite runs keyword rules alone.
func primaryClassifier(client llm.Client, model string) dialog.Classifier {
	if client == nil {
		return nil
	}
	return dialog.NewLLMClassifier(client, model)
}
