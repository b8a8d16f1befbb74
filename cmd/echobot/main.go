// Command echobot is a reference bot for the mock platform. It repeats
// every chat message that starts with a prefix.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/hpwn/mockchat/internal/logging"
)

func main() {
	baseURL := flag.String("base-url", getEnvOrDefault("MOCKCHAT_BASE_URL", "http://localhost:3000"), "mock REST base URL")
	eventsubURL := flag.String("eventsub-url", getEnvOrDefault("MOCKCHAT_EVENTSUB_URL", "ws://localhost:8080"), "EventSub socket URL")
	clientID := flag.String("client-id", getEnvOrDefault("MOCKCHAT_CLIENT_ID", "mock_client_id"), "OAuth client id")
	clientSecret := flag.String("client-secret", getEnvOrDefault("MOCKCHAT_CLIENT_SECRET", "mock_client_secret"), "OAuth client secret")
	prefix := flag.String("prefix", "!echo ", "reply to messages starting with this prefix")
	flag.Parse()

	logger, err := logging.New(getEnvOrDefault("MOCKCHAT_LOG_LEVEL", "info"), getEnvOrDefault("MOCKCHAT_LOG_FORMAT", logging.FormatConsole))
	if err != nil {
		fmt.Fprintf(os.Stderr, "echobot: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("echobot")
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot := NewBot(ctx, Options{
		BaseURL:      *baseURL,
		EventSubURL:  *eventsubURL,
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
		Prefix:       *prefix,
	}, logger)

	if err := bot.Run(ctx); err != nil {
		logger.Error("bot stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func getEnvOrDefault(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}
