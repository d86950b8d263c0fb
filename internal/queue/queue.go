package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/assemblage/backend/internal/util"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DetectQueue  = "detect_queue"
	ResultsQueue = "detect_results"

	// MaxRetries is how often a job goes through the retry queue before it
	// is moved to the dead-letter queue.
	MaxRetries = 10

	retryTTL = 10 * time.Second
)

// Publisher is the publishing half of an AMQP channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

var _ Publisher = (*amqp091.Channel)(nil)

// URLFromEnv assembles the broker URL from RABBITMQ_USER, RABBITMQ_PASSWORD,
// RABBITMQ_HOST and RABBITMQ_PORT.
func URLFromEnv() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnvString("RABBITMQ_USER", "guest"),
		util.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		util.GetEnvString("RABBITMQ_HOST", "localhost"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)
}

// Init connects to RabbitMQ, retrying while the broker is still starting.
func Init(ctx context.Context) (*amqp091.Connection, error) {
	url := URLFromEnv()
	conn, err := util.RetryWithContext(ctx, 5, 2*time.Second, func(context.Context) (*amqp091.Connection, error) {
		conn, err := amqp091.Dial(url)
		err = dialError(err)
		if err != nil && !util.IsPermanent(err) {
			log.Warn("Failed to connect to RabbitMQ, retrying", "err", err)
		}
		return conn, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// dialError marks broker rejections of the credentials or vhost as
// permanent; retrying them cannot succeed.
func dialError(err error) error {
	if errors.Is(err, amqp091.ErrCredentials) || errors.Is(err, amqp091.ErrVhost) || errors.Is(err, amqp091.ErrSASL) {
		return util.Permanent(err)
	}
	return err
}

// SetupQueues declares every queue with its "_dlq" dead-letter queue and a
// "_retry" queue that hands messages back after a delay. The results queue
// is declared as well.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		); err != nil {
			return fmt.Errorf("failed to declare %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		if _, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryTTL / time.Millisecond),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		); err != nil {
			return fmt.Errorf("failed to declare %s: %w", retryName, err)
		}
	}

	if _, err := ch.QueueDeclare(ResultsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare %s: %w", ResultsQueue, err)
	}
	return nil
}

// PublishFIFO sends data to queueName through the default exchange as a
// persistent JSON message. Transient publish failures are retried.
func PublishFIFO(ctx context.Context, pub Publisher, queueName string, data []byte, headers amqp091.Table) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return util.RetryErrWithContext(ctx, 3, 200*time.Millisecond, func(ctx context.Context) error {
		return pub.PublishWithContext(ctx, "", queueName, false, false, publishing)
	})
}
