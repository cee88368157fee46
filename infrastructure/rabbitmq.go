package infrastructure

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"recruit-pipeline/domain"
	"recruit-pipeline/logger"
)

const (
	EvaluationQueue   = "evaluation_queue"
	StageEventsQueue  = "stage_events"
	NotificationQueue = "notifications"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	pubMu   sync.Mutex // HTTP handlers and consumers publish on the same channel
	log     *logger.Logger
}

// NewRabbitMQ connects and declares every queue the service uses.
func NewRabbitMQ(url string, log *logger.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to open channel")
	}

	for _, name := range []string{EvaluationQueue, StageEventsQueue, NotificationQueue} {
		if _, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // args
		); err != nil {
			_ = conn.Close()
			return nil, errors.Wrapf(err, "failed to declare queue %s", name)
		}
	}

	log = log.With("component", "rabbitmq")
	log.Info("connected to RabbitMQ and declared queues")
	return &RabbitMQ{conn: conn, channel: ch, log: log}, nil
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		_ = r.conn.Close()
		return err
	}
	return r.conn.Close()
}

func (r *RabbitMQ) publish(ctx context.Context, queue string, msg interface{}) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrapf(err, "failed to encode message for %s", queue)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	err = r.channel.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "failed to publish to %s", queue)
	}
	return nil
}

func (r *RabbitMQ) PublishEvaluation(ctx context.Context, job domain.EvaluationJob) error {
	return r.publish(ctx, EvaluationQueue, job)
}

// StageChanged hands a transition to the notification senders.
func (r *RabbitMQ) StageChanged(ctx context.Context, ev domain.StageChangedEvent) error {
	return r.publish(ctx, NotificationQueue, ev)
}

// ConsumeEvaluations delivers resume analysis jobs to handler until the
// channel closes.
func (r *RabbitMQ) ConsumeEvaluations(handler func(domain.EvaluationJob)) error {
	return r.consume(EvaluationQueue, func(body []byte) error {
		var job domain.EvaluationJob
		if err := json.Unmarshal(body, &job); err != nil {
			return err
		}
		handler(job)
		return nil
	})
}

func (r *RabbitMQ) ConsumeStageEvents(handler func(domain.StageCompletedEvent)) error {
	return r.consume(StageEventsQueue, func(body []byte) error {
		var ev domain.StageCompletedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return err
		}
		handler(ev)
		return nil
	})
}

// consume acks each delivery once handle returns. Malformed payloads are
// dropped without requeue so they cannot loop.
func (r *RabbitMQ) consume(queue string, handle func([]byte) error) error {
	msgs, err := r.channel.Consume(
		queue,
		"",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to register consumer on %s", queue)
	}

	go func() {
		for d := range msgs {
			if err := handle(d.Body); err != nil {
				r.log.Warn("invalid message format", "queue", queue, "message_id", d.MessageId, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}()
	return nil
}
