package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	auditpg "trustledger/pkg/platform/audit/store/postgres"
)

type fakeOutbox struct {
	entries   []auditpg.OutboxEntry
	published []uuid.UUID
	fetchErr  error
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, limit int) ([]auditpg.OutboxEntry, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []auditpg.OutboxEntry
	for _, e := range f.entries {
		if len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	f.published = append(f.published, ids...)
	done := make(map[uuid.UUID]bool, len(ids))
	for _, v := range ids {
		done[v] = true
	}
	var rest []auditpg.OutboxEntry
	for _, e := range f.entries {
		if !done[e.ID] {
			rest = append(rest, e)
		}
	}
	f.entries = rest
	return nil
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, len(rs))
	for i, r := range rs {
		results[i] = kgo.ProduceResult{Record: r, Err: f.err}
	}
	if f.err == nil {
		f.records = append(f.records, rs...)
	}
	return results
}

func entry(action string) auditpg.OutboxEntry {
	return auditpg.OutboxEntry{
		ID:          uuid.New(),
		AggregateID: "subject-" + action,
		EventType:   action,
		Payload:     []byte(`{"action":"` + action + `"}`),
		CreatedAt:   time.Now(),
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, &fakeProducer{}, "t")
	assert.Error(t, err)
	_, err = New(&fakeOutbox{}, nil, "t")
	assert.Error(t, err)
	_, err = New(&fakeOutbox{}, &fakeProducer{}, "")
	assert.Error(t, err)
}

func TestPublishOnce_RelaysAndMarks(t *testing.T) {
	outbox := &fakeOutbox{entries: []auditpg.OutboxEntry{entry("anomaly_detected"), entry("trust_score_calculated")}}
	producer := &fakeProducer{}
	r, err := New(outbox, producer, "integrity.audit")
	require.NoError(t, err)

	n, err := r.PublishOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, producer.records, 2)
	assert.Equal(t, "integrity.audit", producer.records[0].Topic)
	assert.Equal(t, "event_type", producer.records[0].Headers[0].Key)
	assert.Len(t, outbox.published, 2)
	assert.Empty(t, outbox.entries)
}

func TestPublishOnce_RespectsBatchSize(t *testing.T) {
	outbox := &fakeOutbox{entries: []auditpg.OutboxEntry{entry("a"), entry("b"), entry("c")}}
	r, err := New(outbox, &fakeProducer{}, "integrity.audit", WithBatchSize(2))
	require.NoError(t, err)

	n, err := r.PublishOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, outbox.entries, 1)
}

func TestPublishOnce_ProduceFailureLeavesRowsPending(t *testing.T) {
	outbox := &fakeOutbox{entries: []auditpg.OutboxEntry{entry("anomaly_detected")}}
	r, err := New(outbox, &fakeProducer{err: errors.New("broker down")}, "integrity.audit")
	require.NoError(t, err)

	_, err = r.PublishOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, outbox.published)
	assert.Len(t, outbox.entries, 1)
}

func TestPublishOnce_EmptyOutbox(t *testing.T) {
	r, err := New(&fakeOutbox{}, &fakeProducer{}, "integrity.audit")
	require.NoError(t, err)

	n, err := r.PublishOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
