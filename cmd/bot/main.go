// Package main is the entry point for the voice task bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/assistantgpt/voice-task-bot/internal/clickup"
	"github.com/assistantgpt/voice-task-bot/internal/config"
	"github.com/assistantgpt/voice-task-bot/internal/handler"
	"github.com/assistantgpt/voice-task-bot/internal/llm"
	"github.com/assistantgpt/voice-task-bot/internal/middleware"
	natsclient "github.com/assistantgpt/voice-task-bot/internal/nats"
	"github.com/assistantgpt/voice-task-bot/internal/proxy"
	"github.com/assistantgpt/voice-task-bot/internal/service"
	"github.com/assistantgpt/voice-task-bot/internal/speech"
	"github.com/assistantgpt/voice-task-bot/internal/tools"
	"github.com/assistantgpt/voice-task-bot/pkg/logger"
	"github.com/assistantgpt/voice-task-bot/pkg/tracing"
)

const (
	pollTimeoutSeconds = 60
	maxVoiceBytes      = 20 * 1024 * 1024
)

func main() {
	cli := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	envFile := cli.StringP("env", "e", ".env", "path to an env file")
	logLevel := cli.StringP("log-level", "l", "", "log level override (debug, info, warn, error)")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS5 proxy for outbound requests")
	_ = cli.Parse(os.Args[1:])

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *proxyAddr != "" {
		cfg.ProxyAddr = *proxyAddr
	}

	// Initialize logger
	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("bot stopped with error", zap.Error(err))
	}
	log.Info("bot stopped")
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg.Env == "development" {
		return logger.NewDevelopment()
	}
	return logger.New(cfg.LogLevel)
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting voice task bot",
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("llm_model", cfg.LLMModel),
		zap.String("speech_provider", cfg.SpeechProvider),
		zap.Bool("restricted", cfg.RestrictedToUser()),
	)

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "voice-task-bot", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
					log.Warn("failed to flush traces", zap.Error(err))
				}
			}()
		}
	}

	httpClient, err := proxy.NewHTTPClient(cfg.ProxyAddr)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	// Connect to NATS when an event stream is configured
	var (
		natsClient      *natsclient.Client
		taskEvents      tools.TaskEventPublisher
		conversationEvt handler.ConversationEventPublisher
	)
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log.Named("nats"))
		if err != nil {
			return err
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			return fmt.Errorf("failed to ensure stream: %w", err)
		}
		taskEvents = streamManager
		conversationEvt = streamManager
	}

	// Initialize LLM client
	llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), llmOptions(cfg, httpClient))
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	transcriber, closeTranscriber, err := newTranscriber(ctx, cfg, httpClient, log)
	if err != nil {
		return err
	}
	defer closeTranscriber()

	// Function registry
	location, err := cfg.Location()
	if err != nil {
		return err
	}
	tracker := clickup.NewClient(clickup.Config{
		BaseURL:    cfg.ClickUpBaseURL,
		APIKey:     cfg.ClickUpAPIKey,
		ListID:     cfg.ClickUpListID,
		AssigneeID: cfg.ClickUpUserID,
	}, httpClient, log.Named("clickup"))

	registry, err := tools.NewRegistry(
		tools.NewDateCalculator(nil, location).Tool(),
		tools.NewCreateTaskTool(tracker, taskEvents, log.Named("tools")),
	)
	if err != nil {
		return fmt.Errorf("failed to build function registry: %w", err)
	}
	log.Info("functions registered", zap.Strings("functions", registry.Names()))

	engine := service.NewConversationEngine(llmClient, registry, service.EngineOptions{
		Model:    cfg.LLMModel,
		MaxSteps: cfg.LLMMaxSteps,
	}, log.Named("engine"))

	// Telegram
	endpoint := cfg.TelegramAPIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if err := tgbotapi.SetLogger(botLogger{log.Named("telegram").Sugar()}); err != nil {
		log.Warn("failed to set Telegram logger", zap.Error(err))
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, endpoint, httpClient)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	log.Info("authorized on Telegram", zap.String("username", bot.Self.UserName))

	botHandler := handler.NewBotHandler(
		bot,
		handler.NewHTTPFetcher(httpClient, maxVoiceBytes),
		transcriber,
		engine,
		conversationEvt,
		handler.BotOptions{
			AllowedUserID:  cfg.AllowedUserID,
			TypingInterval: cfg.TypingInterval,
			MaxAudioBytes:  maxVoiceBytes,
		},
		log.Named("bot"),
	)
	poller := handler.NewPoller(bot, botHandler, pollTimeoutSeconds, log.Named("poller"))

	// Ops server
	var server *http.Server
	if cfg.OpsPort != "" {
		checks := []handler.ReadinessCheck{handler.PollerCheck(poller)}
		if natsClient != nil {
			checks = append(checks, handler.PingCheck("nats", natsClient))
		}
		server = newOpsServer(cfg, handler.NewHealthHandler(checks...), log)
		go func() {
			log.Info("ops server listening", zap.String("port", cfg.OpsPort))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("ops server error", zap.Error(err))
				stop()
			}
		}()
	}

	pollErr := make(chan error, 1)
	go func() { pollErr <- poller.Run(ctx) }()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-pollErr:
		stop()
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("ops server forced to shutdown", zap.Error(err))
		}
	}

	if runErr == nil {
		select {
		case runErr = <-pollErr:
		case <-shutdownCtx.Done():
			log.Warn("in-flight updates did not finish before the shutdown timeout")
		}
	}

	return runErr
}

func llmOptions(cfg *config.Config, httpClient *http.Client) llm.Options {
	opts := llm.Options{HTTPClient: httpClient}
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		opts.APIKey = cfg.AnthropicAPIKey
	default:
		opts.APIKey = cfg.OpenAIAPIKey
		opts.BaseURL = cfg.OpenAIBaseURL
	}
	return opts
}

func newTranscriber(ctx context.Context, cfg *config.Config, httpClient *http.Client, log *logger.Logger) (speech.Transcriber, func(), error) {
	speechCfg := speech.DefaultConfig()
	speechCfg.LanguageCode = cfg.SpeechLanguage
	speechCfg.SampleRateHertz = cfg.SpeechSampleRate

	switch cfg.SpeechProvider {
	case config.SpeechWhisper:
		openaiClient, err := llm.NewOpenAIClient(llm.Options{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Whisper client: %w", err)
		}
		return speech.NewWhisperTranscriber(openaiClient.SDK(), speechCfg), func() {}, nil
	default:
		google, err := speech.NewGoogleTranscriber(ctx, speechCfg, log.Named("speech"))
		if err != nil {
			return nil, nil, err
		}
		return google, func() {
			if err := google.Close(); err != nil {
				log.Warn("failed to close speech client", zap.Error(err))
			}
		}, nil
	}
}

func newOpsServer(cfg *config.Config, health *handler.HealthHandler, log *logger.Logger) *http.Server {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:         ":" + cfg.OpsPort,
		Handler:      r,
		ReadTimeout:  cfg.OpsReadTimeout,
		WriteTimeout: cfg.OpsWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
}

// botLogger routes the Telegram library's log lines through zap.
type botLogger struct {
	*zap.SugaredLogger
}

func (l botLogger) Println(v ...interface{}) {
	l.Debug(v...)
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.Debugf(format, v...)
}
