package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jeremyjsx/miniblog/internal/config"
	"github.com/jeremyjsx/miniblog/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.Load()
	if cfg.RabbitMQURL == "" {
		logger.Error("RABBITMQ_URL is required")
		os.Exit(1)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", "error", err)
		os.Exit(1)
	}
	defer ch.Close()

	queue, err := events.DeclareNewsletterQueue(ch)
	if err != nil {
		logger.Error("failed to declare newsletter queue", "error", err)
		os.Exit(1)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("failed to set qos", "error", err)
		os.Exit(1)
	}

	deliveries, err := ch.Consume(queue, "newsletter-worker", false, false, false, false, nil)
	if err != nil {
		logger.Error("failed to start consuming", "error", err)
		os.Exit(1)
	}

	logger.Info("newsletter worker started", "queue", queue)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			logger.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			handleDelivery(logger, cfg.BaseURL, d)
		}
	}
}

func handleDelivery(logger *slog.Logger, baseURL string, d amqp.Delivery) {
	n, err := parseNotification(baseURL, d.Body)
	switch {
	case err != nil:
		logger.Error("invalid event body", "error", err)
		_ = d.Nack(false, false)
		return
	case n == nil:
		logger.Debug("ignoring event", "type", d.Type)
	default:
		logger.Info("newsletter queued",
			"post_id", n.PostID,
			"title", n.Title,
			"url", n.URL,
		)
	}
	if err := d.Ack(false); err != nil {
		logger.Error("failed to ack", "error", err)
	}
}

type notification struct {
	PostID string
	Title  string
	URL    string
}

// parseNotification decodes a post.published event. Other event types give
// a nil notification and no error.
func parseNotification(baseURL string, body []byte) (*notification, error) {
	var e events.PostPublished
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.Type != events.TypePostPublished {
		return nil, nil
	}
	if e.Payload.PostID == "" {
		return nil, fmt.Errorf("event without post id")
	}
	return &notification{
		PostID: e.Payload.PostID,
		Title:  e.Payload.Title,
		URL:    strings.TrimSuffix(baseURL, "/") + e.Payload.Link,
	}, nil
}
