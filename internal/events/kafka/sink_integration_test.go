//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"donationpool/internal/events/kafka"
	"donationpool/internal/pool/models"
	"donationpool/pkg/requestcontext"
	"donationpool/pkg/testutil/containers"
)

type SinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SinkSuite))
}

func (s *SinkSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *SinkSuite) TestPublishWritesKeyedRecords() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "pool-events-" + uuid.NewString()
	sink, err := kafka.New([]string{s.redpanda.Broker}, topic)
	s.Require().NoError(err)
	defer sink.Close()
	s.Require().NoError(sink.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(sink.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	donor := common.HexToAddress("0x00000000000000000000000000000000000000d0")
	shelter := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	events := []models.Event{
		models.DonationMade(donor, shelter, uint256.NewInt(9750)),
		models.FundsWithdrawn(shelter, uint256.NewInt(9750)),
	}
	s.Require().NoError(sink.Publish(requestcontext.WithRequestID(ctx, "req-1"), events))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) < len(events) {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}

	for i, r := range records {
		s.Equal(shelter.Hex(), string(r.Key))

		var msg kafka.Message
		s.Require().NoError(json.Unmarshal(r.Value, &msg))
		s.Equal(events[i].Kind, msg.Event.Kind)
		s.Equal(uint64(9750), msg.Event.Amount.Uint64())

		headers := map[string]string{}
		for _, h := range r.Headers {
			headers[h.Key] = string(h.Value)
		}
		s.Equal(msg.EventID, headers[kafka.HeaderEventID])
		s.Equal(string(events[i].Kind), headers[kafka.HeaderEventKind])
		s.Equal("req-1", headers[kafka.HeaderRequestID])
	}
}
