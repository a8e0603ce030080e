package notify

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/pkg/errors"
	"github.com/ajitpratap0/logexport/pkg/logger"
	"github.com/ajitpratap0/logexport/pkg/metrics"
)

// SQSAPI is the subset of the SQS client the consumer uses.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

var _ SQSAPI = (*sqs.Client)(nil)

// Handler is called once per decoded artifact message
type Handler func(ctx context.Context, msg Message) error

// Consumer long-polls the notification queue.
type Consumer struct {
	client      SQSAPI
	queueURL    string
	waitTime    time.Duration
	maxMessages int
}

// NewConsumer returns a consumer for queueURL. waitTime is capped at the
// 20 second long-poll maximum and maxMessages at 10.
func NewConsumer(client SQSAPI, queueURL string, waitTime time.Duration, maxMessages int) *Consumer {
	if waitTime > 20*time.Second {
		waitTime = 20 * time.Second
	}
	if maxMessages <= 0 || maxMessages > 10 {
		maxMessages = 10
	}
	return &Consumer{
		client:      client,
		queueURL:    queueURL,
		waitTime:    waitTime,
		maxMessages: maxMessages,
	}
}

// Poll receives one batch and hands every artifact to handle. Messages are
// deleted once all their artifacts are handled; malformed messages and
// handler failures stay on the queue. It returns the number of artifacts
// handled.
func (c *Consumer) Poll(ctx context.Context, handle Handler) (int, error) {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: int32(c.maxMessages),
		WaitTimeSeconds:     int32(c.waitTime / time.Second),
	})
	if err != nil {
		return 0, errors.Wrap(err, errors.Classify(err), "failed to receive notifications").
			WithDetail("queue_url", c.queueURL)
	}

	log := logger.WithContext(ctx)
	handled := 0
	for _, m := range out.Messages {
		id := aws.ToString(m.MessageId)
		msgs, err := Decode(aws.ToString(m.Body))
		if err != nil {
			log.Warn("leaving malformed notification on queue", zap.String("message_id", id), zap.Error(err))
			continue
		}
		if len(msgs) == 0 {
			metrics.Notifications.WithLabelValues(testEvent).Inc()
			log.Debug("ignoring test event", zap.String("message_id", id))
		}

		ok := true
		for _, msg := range msgs {
			msg.MessageID = id
			if err := handle(ctx, msg); err != nil {
				log.Error("notification handler failed", zap.String("message_id", id), zap.Error(err))
				ok = false
				break
			}
			metrics.Notifications.WithLabelValues(msg.EventType).Inc()
			handled++
		}
		if !ok {
			continue
		}

		if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(c.queueURL),
			ReceiptHandle: m.ReceiptHandle,
		}); err != nil {
			log.Warn("failed to delete notification", zap.String("message_id", id), zap.Error(err))
		}
	}
	return handled, nil
}

// Run polls until ctx is done. Receive failures are logged and retried
// after a short pause.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := c.Poll(ctx, handle); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.WithContext(ctx).Warn("notification poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}
