package notify

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/logexport/pkg/errors"
	"github.com/ajitpratap0/logexport/pkg/testutil"
)

const objectCreated = `{
  "Records": [{
    "eventVersion": "2.1",
    "eventSource": "aws:s3",
    "eventName": "ObjectCreated:Put",
    "eventTime": "2024-03-10T12:05:00.000Z",
    "s3": {
      "bucket": {"name": "logs-bucket"},
      "object": {"key": "exports/service/api/2024-03-10/abc123/i-0%3Astream/000000.gz", "size": 2048}
    }
  }]
}`

const testEventBody = `{"Service":"Amazon S3","Event":"s3:TestEvent","Time":"2024-03-10T12:00:00.000Z","Bucket":"logs-bucket"}`

func TestDecode(t *testing.T) {
	msgs, err := Decode(objectCreated)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, "exports/service/api/2024-03-10/abc123/i-0:stream/000000.gz", msgs[0].ObjectKey)
	assert.Equal(t, "ObjectCreated:Put", msgs[0].EventType)
	assert.Equal(t, "logs-bucket", msgs[0].Bucket)
	assert.Equal(t, int64(2048), msgs[0].Size)
	assert.True(t, time.Date(2024, 3, 10, 12, 5, 0, 0, time.UTC).Equal(msgs[0].Timestamp))
}

func TestDecode_TestEvent(t *testing.T) {
	msgs, err := Decode(testEventBody)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDecode_Malformed(t *testing.T) {
	for _, body := range []string{"not json", `{"Records":[]}`, `{}`} {
		_, err := Decode(body)
		require.Error(t, err, body)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	}
}

type fakeQueue struct {
	messages   []types.Message
	receiveErr error
	received   []*sqs.ReceiveMessageInput
	deleted    []string
}

func (f *fakeQueue) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.received = append(f.received, in)
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeQueue) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func sqsMessage(id, body string) types.Message {
	return types.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("rh-" + id),
		Body:          aws.String(body),
	}
}

func TestConsumer_Poll(t *testing.T) {
	testutil.TestLogger(t)
	queue := &fakeQueue{messages: []types.Message{
		sqsMessage("1", objectCreated),
		sqsMessage("2", testEventBody),
		sqsMessage("3", "garbage"),
	}}

	var got []Message
	n, err := NewConsumer(queue, "https://sqs/queue", 30*time.Second, 0).Poll(context.Background(), func(_ context.Context, m Message) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].MessageID)
	assert.Equal(t, []string{"rh-1", "rh-2"}, queue.deleted)

	require.Len(t, queue.received, 1)
	assert.Equal(t, int32(20), queue.received[0].WaitTimeSeconds)
	assert.Equal(t, int32(10), queue.received[0].MaxNumberOfMessages)
}

func TestConsumer_HandlerFailureKeepsMessage(t *testing.T) {
	testutil.TestLogger(t)
	queue := &fakeQueue{messages: []types.Message{sqsMessage("1", objectCreated)}}

	n, err := NewConsumer(queue, "q", time.Second, 5).Poll(context.Background(), func(context.Context, Message) error {
		return stderrors.New("downstream unavailable")
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, queue.deleted)
}

func TestConsumer_ReceiveFailure(t *testing.T) {
	queue := &fakeQueue{receiveErr: stderrors.New("connection reset")}

	_, err := NewConsumer(queue, "q", time.Second, 5).Poll(context.Background(), func(context.Context, Message) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
}

func TestConsumer_RunStopsOnCancel(t *testing.T) {
	testutil.TestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	queue := &fakeQueue{messages: []types.Message{sqsMessage("1", objectCreated)}}

	err := NewConsumer(queue, "q", 0, 1).Run(ctx, func(context.Context, Message) error {
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rh-1"}, queue.deleted)
}

// flakyQueue fails its first receive, then serves one message per call
type flakyQueue struct {
	mu    sync.Mutex
	calls int
}

func (f *flakyQueue) ReceiveMessage(context.Context, *sqs.ReceiveMessageInput, ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == 1 {
		return nil, stderrors.New("connection reset")
	}
	return &sqs.ReceiveMessageOutput{Messages: []types.Message{sqsMessage("m", objectCreated)}}, nil
}

func (f *flakyQueue) DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	return &sqs.DeleteMessageOutput{}, nil
}

func TestConsumer_RunRetriesAfterReceiveFailure(t *testing.T) {
	testutil.TestLogger(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	var handled atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- NewConsumer(&flakyQueue{}, "q", 0, 1).Run(ctx, func(context.Context, Message) error {
			handled.Add(1)
			return nil
		})
	}()

	testutil.AssertEventually(t, func() bool { return handled.Load() > 0 }, 5*time.Second, "no message handled after receive failure")
	cancel()
	require.NoError(t, <-done)
}
