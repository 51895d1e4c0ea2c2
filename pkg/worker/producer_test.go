package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	"github.com/ticketnest/ticketing-api/pkg/logger"
	"github.com/ticketnest/ticketing-api/pkg/messaging"
	"github.com/ticketnest/ticketing-api/pkg/metrics"
)

// One registry-backed metrics instance for the whole package; registering the
// same collectors twice panics.
var testMetrics = metrics.New("test", "worker")

type fakeOutbox struct {
	records  []*model.OutboxRecord
	fetchErr error
	markErr  error
	marked   [][]int64
}

func (f *fakeOutbox) Append(ctx context.Context, tx repository.Tx, eventName string, payload interface{}) (*model.OutboxRecord, error) {
	panic("not used")
}

func (f *fakeOutbox) FetchUndelivered(ctx context.Context, limit int) ([]*model.OutboxRecord, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []*model.OutboxRecord
	for _, r := range f.records {
		if r.Status == model.OutboxStatusCreated {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkSent(ctx context.Context, ids []int64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, ids)
	for _, r := range f.records {
		for _, id := range ids {
			if r.ID == id {
				r.Status = model.OutboxStatusSent
			}
		}
	}
	return nil
}

func (f *fakeOutbox) CountUndelivered(ctx context.Context) (int64, error) {
	var n int64
	for _, r := range f.records {
		if r.Status == model.OutboxStatusCreated {
			n++
		}
	}
	return n, nil
}

type fakeBroker struct {
	mu         sync.Mutex
	published  [][]messaging.TopicBatch
	publishErr error
	subs       map[string]chan []byte
}

func (b *fakeBroker) PublishBatch(ctx context.Context, batches []messaging.TopicBatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, batches)
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[string]chan []byte)
	}
	ch := make(chan []byte, 10)
	b.subs[topic] = ch
	return ch, nil
}

func (b *fakeBroker) sub(topic string) chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs[topic]
}

func (b *fakeBroker) Close() error { return nil }

func record(id int64, topic, payload string) *model.OutboxRecord {
	return &model.OutboxRecord{
		ID:        id,
		EventName: topic,
		Payload:   payload,
		Status:    model.OutboxStatusCreated,
		CreatedAt: time.Now(),
	}
}

func newTestProducer(outbox *fakeOutbox, broker *fakeBroker, batchSize int) *Producer {
	return NewProducer(outbox, broker, ProducerConfig{
		BatchSize:    batchSize,
		PollInterval: time.Second,
	}, logger.NewLogger(nil), testMetrics)
}

func TestProduceMessagesGroupsByTopic(t *testing.T) {
	outbox := &fakeOutbox{records: []*model.OutboxRecord{
		record(1, model.TicketEventCreate, `{"n":1}`),
		record(2, model.TicketEventDelete, `{"n":2}`),
		record(3, model.TicketEventCreate, `{"n":3}`),
	}}
	broker := &fakeBroker{}
	producer := newTestProducer(outbox, broker, 10)

	batches, err := producer.ProduceMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 2)

	assert.Equal(t, model.TicketEventCreate, batches[0].Topic)
	require.Len(t, batches[0].Messages, 2)
	assert.Equal(t, `{"n":1}`, batches[0].Messages[0].Value)
	assert.Equal(t, `{"n":3}`, batches[0].Messages[1].Value)

	assert.Equal(t, model.TicketEventDelete, batches[1].Topic)
	require.Len(t, batches[1].Messages, 1)

	// One broker call, all rows marked sent.
	require.Len(t, broker.published, 1)
	require.Len(t, outbox.marked, 1)
	assert.Equal(t, []int64{1, 2, 3}, outbox.marked[0])
}

func TestProduceMessagesEmptyOutbox(t *testing.T) {
	outbox := &fakeOutbox{}
	broker := &fakeBroker{}
	producer := newTestProducer(outbox, broker, 10)

	batches, err := producer.ProduceMessages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batches)
	assert.Empty(t, broker.published)
	assert.Empty(t, outbox.marked)
}

func TestProduceMessagesRespectsBatchSize(t *testing.T) {
	outbox := &fakeOutbox{records: []*model.OutboxRecord{
		record(1, model.TicketEventCreate, `{"n":1}`),
		record(2, model.TicketEventCreate, `{"n":2}`),
		record(3, model.TicketEventCreate, `{"n":3}`),
	}}
	broker := &fakeBroker{}
	producer := newTestProducer(outbox, broker, 2)

	batches, err := producer.ProduceMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Messages, 2)

	// The remainder is picked up on the next cycle.
	batches, err = producer.ProduceMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Messages, 1)

	count, _ := outbox.CountUndelivered(context.Background())
	assert.Zero(t, count)
}

func TestProduceMessagesPublishFailureLeavesRows(t *testing.T) {
	outbox := &fakeOutbox{records: []*model.OutboxRecord{
		record(1, model.TicketEventCreate, `{"n":1}`),
	}}
	broker := &fakeBroker{publishErr: errors.New("broker down")}
	producer := newTestProducer(outbox, broker, 10)

	_, err := producer.ProduceMessages(context.Background())
	require.Error(t, err)
	assert.Empty(t, outbox.marked)

	count, _ := outbox.CountUndelivered(context.Background())
	assert.EqualValues(t, 1, count)

	// Recovery re-delivers the same row.
	broker.publishErr = nil
	batches, err := producer.ProduceMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, `{"n":1}`, batches[0].Messages[0].Value)
}

func TestProduceMessagesSecondRunIsIdempotent(t *testing.T) {
	outbox := &fakeOutbox{records: []*model.OutboxRecord{
		record(1, model.TicketEventCreate, `{"n":1}`),
	}}
	broker := &fakeBroker{}
	producer := newTestProducer(outbox, broker, 10)

	_, err := producer.ProduceMessages(context.Background())
	require.NoError(t, err)

	batches, err := producer.ProduceMessages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batches)
	assert.Len(t, broker.published, 1)
}
