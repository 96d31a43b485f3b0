// Package main is the entry point for the Skype bridge.
// The bridge normalizes Bot Framework events into ActivityStreams
// messages and delivers outbound activities back to the platform.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/broidkit/skype-bridge/internal/activity"
	"github.com/broidkit/skype-bridge/internal/bridge"
	"github.com/broidkit/skype-bridge/internal/config"
	"github.com/broidkit/skype-bridge/internal/denormalize"
	"github.com/broidkit/skype-bridge/internal/schema"
	"github.com/broidkit/skype-bridge/internal/skype"
	"github.com/broidkit/skype-bridge/internal/transport"
	"github.com/broidkit/skype-bridge/internal/webhook"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Skype Bridge v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Observability.LogLevel)
	defer logger.Sync()

	logger.Info("Starting Skype bridge",
		zap.String("version", version),
		zap.String("config", *configPath))

	connectorCfg := cfg.Connector
	connectorCfg.AppID = cfg.Credentials.AppID
	connectorCfg.AppPassword = cfg.Credentials.AppPassword

	adapter := bridge.New(bridge.Config{
		ServiceID: cfg.Bridge.ServiceID,
		Connector: connectorCfg,
		QueueSize: cfg.Bridge.QueueSize,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := adapter.Connect(ctx); err != nil {
		logger.Fatal("Failed to connect adapter", zap.Error(err))
	}

	// Downstream fan-out of the normalized stream.
	wsServer := transport.NewWebSocketServer(logger)
	if err := wsServer.Start(ctx); err != nil {
		logger.Fatal("Failed to start stream server", zap.Error(err))
	}
	pollServer := transport.NewPollingServer(logger)

	go func() {
		for a := range adapter.Listen() {
			if err := wsServer.Publish(a); err != nil {
				logger.Warn("Stream publish failed", zap.Error(err))
			}
			if err := pollServer.Publish(a); err != nil {
				logger.Warn("Backlog publish failed", zap.Error(err))
			}
		}
	}()

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","version":"` + version + `"}`))
	})

	webhookServer := webhook.New(adapter, logger)
	mux.Handle(cfg.Server.WebhookPath+"/",
		http.StripPrefix(cfg.Server.WebhookPath, webhookServer.Handler()))
	logger.Info("Webhook endpoints registered", zap.String("path", cfg.Server.WebhookPath))

	mux.Handle(cfg.Server.StreamPath, wsServer.HTTPHandler())
	mux.Handle(cfg.Server.PollPath, pollServer.HTTPHandler())

	mux.HandleFunc("/api/v1/send", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var data activity.Activity
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		receipt, err := adapter.Send(r.Context(), &data)
		if err != nil {
			logger.Error("Send failed", zap.Error(err))
			writeError(w, sendStatusCode(err), err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(receipt)
	})

	mux.HandleFunc("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(adapter.Users())
	})

	mux.HandleFunc("/api/v1/addresses/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/addresses/")
		address, err := adapter.Addresses(id)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(address)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server starting",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	logger.Info("Skype bridge started",
		zap.String("serviceId", adapter.ServiceID()),
		zap.String("webhook", cfg.Server.WebhookPath+"/messages"),
		zap.String("stream", cfg.Server.StreamPath),
		zap.String("poll", cfg.Server.PollPath))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := wsServer.Stop(shutdownCtx); err != nil {
		logger.Error("Stream server shutdown error", zap.Error(err))
	}
	if err := adapter.Close(); err != nil {
		logger.Error("Adapter shutdown error", zap.Error(err))
	}

	logger.Info("Skype bridge stopped")
}

// sendStatusCode maps send failures onto HTTP status codes.
func sendStatusCode(err error) int {
	var validationErr *schema.ValidationError
	var malformedErr *activity.MalformedContextError
	var unsupportedErr *denormalize.UnsupportedContentTypeError
	var transportErr *skype.TransportError

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &malformedErr),
		errors.As(err, &unsupportedErr):
		return http.StatusBadRequest
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	case errors.Is(err, bridge.ErrCredentialsMissing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := cfg.Build()
	return logger
}
