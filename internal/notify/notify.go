// Package notify consumes the artifact notifications S3 publishes to the
// notification queue, one message per object an export task writes.
package notify

import (
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"

	"github.com/ajitpratap0/logexport/pkg/errors"
)

// testEvent is the event S3 sends once when a notification configuration is
// attached to the bucket
const testEvent = "s3:TestEvent"

// Message describes one artifact written by an export task.
type Message struct {
	ObjectKey string    `json:"objectKey"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Bucket    string    `json:"bucket"`
	Size      int64     `json:"size"`
	MessageID string    `json:"messageId,omitempty"`
}

type s3TestEvent struct {
	Event  string `json:"Event"`
	Bucket string `json:"Bucket"`
}

// Decode parses an S3 event notification body. A test event decodes to no
// messages and no error.
func Decode(body string) ([]Message, error) {
	var event events.S3Event
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "malformed notification body")
	}

	if len(event.Records) == 0 {
		var ev s3TestEvent
		if err := json.Unmarshal([]byte(body), &ev); err == nil && ev.Event == testEvent {
			return nil, nil
		}
		return nil, errors.New(errors.ErrorTypeValidation, "notification carries no records")
	}

	messages := make([]Message, 0, len(event.Records))
	for _, rec := range event.Records {
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			key = rec.S3.Object.Key
		}
		messages = append(messages, Message{
			ObjectKey: key,
			EventType: rec.EventName,
			Timestamp: rec.EventTime,
			Bucket:    rec.S3.Bucket.Name,
			Size:      rec.S3.Object.Size,
		})
	}
	return messages, nil
}
