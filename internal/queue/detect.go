package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/assemblage/backend/internal/metrics"
	"github.com/assemblage/backend/internal/util"
	"github.com/assemblage/backend/pkg/assemblage"
	"github.com/assemblage/backend/pkg/common"
	"github.com/assemblage/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

var log = logger.Component("Queue")

// Detector is the part of assemblage.Service the worker needs.
type Detector interface {
	Detect(ctx context.Context, req assemblage.Request) (assemblage.Result, error)
}

// DetectJobMsg is the body of a detect_queue message.
type DetectJobMsg struct {
	JobID   string             `json:"job_id"`
	Request assemblage.Request `json:"request"`
}

// DetectResultMsg is published to detect_results once a job settles.
type DetectResultMsg struct {
	JobID  string             `json:"job_id"`
	Status string             `json:"status"`
	Result *assemblage.Result `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// EnqueueDetect assigns a job ID to req and publishes it to detect_queue.
func EnqueueDetect(ctx context.Context, pub Publisher, req assemblage.Request) (string, error) {
	jobID, err := util.NewPrefixedID("job")
	if err != nil {
		return "", fmt.Errorf("failed to generate job id: %w", err)
	}
	body, err := json.Marshal(DetectJobMsg{JobID: jobID, Request: req})
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := PublishFIFO(ctx, pub, DetectQueue, body, nil); err != nil {
		return "", fmt.Errorf("failed to publish job: %w", err)
	}
	return jobID, nil
}

// ProcessDetectMessage runs one detection job and publishes its outcome.
//
// Malformed bodies, validation failures and internal failures are reported
// and settle the job. Upstream failures are returned so the caller can
// retry the message; nothing is published for them yet.
func ProcessDetectMessage(ctx context.Context, d Detector, pub Publisher, body []byte) error {
	start := time.Now()

	var job DetectJobMsg
	if err := json.Unmarshal(body, &job); err != nil {
		err = common.NewValidationError("body", "malformed job: %v", err)
		metrics.ObserveDetect(start, 0, false, err)
		return publishResult(ctx, pub, DetectResultMsg{Status: common.StatusInvalid, Error: err.Error()})
	}

	res, err := d.Detect(ctx, job.Request)
	metrics.ObserveDetect(start, len(res.Communities), res.Empty != "", err)

	msg := DetectResultMsg{JobID: job.JobID, Status: common.StatusFor(err)}
	switch msg.Status {
	case common.StatusDone:
		msg.Result = &res
	case common.StatusUpstreamFailed:
		return err
	default:
		msg.Error = err.Error()
	}

	log.Info("Job settled", "job_id", job.JobID, "status", msg.Status, "communities", len(res.Communities))
	return publishResult(ctx, pub, msg)
}

func publishResult(ctx context.Context, pub Publisher, msg DetectResultMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := PublishFIFO(ctx, pub, ResultsQueue, body, nil); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}
	return nil
}

// HandleDelivery processes msg from queueName and settles it: acked on
// success, otherwise moved to the retry queue with an incremented
// x-retries header. After MaxRetries the message goes to the dead-letter
// queue and a failed result is published for the job.
func HandleDelivery(ctx context.Context, d Detector, pub Publisher, msg amqp091.Delivery, queueName string) {
	err := ProcessDetectMessage(ctx, d, pub, msg.Body)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			log.Error("Failed to ack message", "err", ackErr)
		}
		return
	}
	log.Error("Error processing message", "queue", queueName, "err", err)
	handleProcessingError(ctx, pub, msg, queueName, err)
}

func retriesOf(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func handleProcessingError(ctx context.Context, pub Publisher, msg amqp091.Delivery, queueName string, cause error) {
	retries := retriesOf(msg.Headers)

	if retries >= MaxRetries {
		dlqName := queueName + "_dlq"
		log.Warn("Sending message to DLQ", "dlq", dlqName, "retries", retries)
		if err := PublishFIFO(ctx, pub, dlqName, msg.Body, msg.Headers); err != nil {
			log.Error("Failed to publish to DLQ", "dlq", dlqName, "err", err)
			_ = msg.Nack(false, true)
			return
		}

		var job DetectJobMsg
		_ = json.Unmarshal(msg.Body, &job)
		failed := DetectResultMsg{JobID: job.JobID, Status: common.StatusFor(cause), Error: cause.Error()}
		if err := publishResult(ctx, pub, failed); err != nil {
			log.Error("Failed to publish failed result", "job_id", job.JobID, "err", err)
		}
		_ = msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retries"] = int32(retries + 1)

	if err := PublishFIFO(ctx, pub, retryName, msg.Body, headers); err != nil {
		log.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
