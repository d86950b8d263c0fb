package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assemblage/backend/internal/queue"
	"github.com/assemblage/backend/internal/util"
	"github.com/assemblage/backend/pkg/assemblage"
	"github.com/assemblage/backend/pkg/logger"
	"github.com/assemblage/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	svc, aiClient, err := assemblage.NewServiceFromEnv()
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}

	// Init rabbitmq
	conn, err := queue.Init(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.DetectQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// one unacked message at a time
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.DetectQueue,
		queue.DetectQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.DetectQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.DetectQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.DetectQueue)
				return
			}
			startTime := time.Now()
			logger.Info("Received message", "queue", queue.DetectQueue)

			queue.HandleDelivery(ctx, svc, ch, msg, queue.DetectQueue)

			metrics := aiClient.GetMetrics()
			logger.Info(
				"AI Metrics",
				"requests", metrics.Requests,
				"input_tokens", metrics.InputTokens,
				"output_tokens", metrics.OutputTokens,
				"total_tokens", metrics.TotalTokens,
				"duration", formatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
			)
			logger.Info("Processing time", "duration", formatDuration(time.Since(startTime)))
			aiClient.ResetMetrics()
		}
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
