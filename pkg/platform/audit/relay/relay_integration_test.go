//go:build integration

package relay_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	ledgerpg "trustledger/internal/ledger/store/postgres"
	id "trustledger/pkg/domain"
	audit "trustledger/pkg/platform/audit"
	"trustledger/pkg/platform/audit/publisher"
	"trustledger/pkg/platform/audit/relay"
	auditpg "trustledger/pkg/platform/audit/store/postgres"
	"trustledger/pkg/testutil/containers"
)

const topic = "integrity.audit.test"

type RelaySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redpanda *containers.RedpandaContainer
	outbox   *auditpg.Store
	client   *kgo.Client
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	ctx := context.Background()
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redpanda = mgr.GetRedpanda(s.T())
	s.Require().NoError(ledgerpg.Migrate(ctx, s.postgres.DB))
	s.outbox = auditpg.New(s.postgres.DB)

	cl, err := relay.NewClient([]string{s.redpanda.Broker}, topic)
	s.Require().NoError(err)
	s.client = cl
	s.Require().NoError(relay.EnsureTopic(ctx, cl, topic, 1, 1))
	// A second call finds the topic and succeeds.
	s.Require().NoError(relay.EnsureTopic(ctx, cl, topic, 1, 1))
}

func (s *RelaySuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *RelaySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
}

func (s *RelaySuite) TestPublishOnceDeliversAndMarksOutbox() {
	ctx := context.Background()
	pub := publisher.NewPublisher(s.outbox)
	defer pub.Close()

	anomalyID := id.NewAnomalyID()
	s.Require().NoError(pub.Emit(ctx, audit.Event{
		Action:     string(audit.EventAnomalyDetected),
		Subject:    anomalyID.String(),
		ActorID:    id.NewUserID(),
		Attributes: map[string]string{"severity": "critical"},
	}))

	r, err := relay.New(s.outbox, s.client, topic)
	s.Require().NoError(err)

	n, err := r.PublishOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	pending, err := s.outbox.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)

	n, err = r.PublishOnce(ctx)
	s.Require().NoError(err)
	s.Zero(n, "published rows are not sent again")

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	var records []*kgo.Record
	for len(records) == 0 && pollCtx.Err() == nil {
		fetches := consumer.PollFetches(pollCtx)
		fetches.EachRecord(func(rec *kgo.Record) {
			records = append(records, rec)
		})
	}
	s.Require().NotEmpty(records)

	rec := records[len(records)-1]
	s.Equal(anomalyID.String(), string(rec.Key))
	s.Require().NotEmpty(rec.Headers)
	s.Equal("event_type", rec.Headers[0].Key)
	s.Equal(string(audit.EventAnomalyDetected), string(rec.Headers[0].Value))

	var payload map[string]any
	s.Require().NoError(json.Unmarshal(rec.Value, &payload))
	s.Equal(string(audit.EventAnomalyDetected), payload["action"])
	s.Equal("compliance", payload["category"])
}
