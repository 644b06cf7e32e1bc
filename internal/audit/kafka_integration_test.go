//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"watsonmark/internal/audit"
	"watsonmark/pkg/testutil/containers"
)

func TestKafkaSinkPublish(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)
	topic := "watsonmark.audit.test"

	sink, err := audit.NewKafkaSink(ctx, []string{redpanda.Broker}, topic, nil)
	require.NoError(t, err)
	require.NotNil(t, sink)

	event := audit.Event{
		ID:            uuid.New(),
		Category:      audit.CategoryCompliance,
		Action:        audit.ActionCertificateMinted,
		Actor:         "issuer-1",
		CertificateID: 1,
		WatermarkID:   7777,
		Decision:      "Pending",
		OccurredAt:    time.Now().UTC(),
	}
	sink.Publish(ctx, event)
	require.NoError(t, sink.Close(), "close flushes pending records")

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "issuer-1", string(records[0].Key), "events are keyed by actor")

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, event.ID, got.ID)
	require.Equal(t, audit.ActionCertificateMinted, got.Action)
	require.Equal(t, event.WatermarkID, got.WatermarkID)
}

func TestKafkaSinkDisabledWithoutBrokers(t *testing.T) {
	sink, err := audit.NewKafkaSink(context.Background(), nil, "topic", nil)
	require.NoError(t, err)
	require.Nil(t, sink)
}
