//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"prepgate/internal/analytics"
	"prepgate/pkg/testutil/containers"
)

func TestPublisher_Integration(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx := context.Background()
	const topic = "product.analytics.test"

	admClient, err := kgo.NewClient(kgo.SeedBrokers(rp.Broker))
	require.NoError(t, err)
	defer admClient.Close()

	adm := kadm.NewClient(admClient)
	_, err = adm.CreateTopics(ctx, 1, 1, nil, topic)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub, err := New([]string{rp.Broker}, topic, logger)
	require.NoError(t, err)

	userID := "u1"
	event := analytics.NewEvent(analytics.EventEntitlementCheckFailed, &userID, map[string]any{
		"route":  "/api/questions/current",
		"reason": "not_subscriber",
	})
	require.NoError(t, pub.Publish(ctx, event))
	pub.Close() // flushes the async produce

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "u1", string(records[0].Key))

	var got analytics.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, analytics.EventEntitlementCheckFailed, got.Name)
	assert.Equal(t, "not_subscriber", got.Properties["reason"])
}
