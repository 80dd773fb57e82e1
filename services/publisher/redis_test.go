package publisher

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This test requires a running redis instance
// If redis is not available, the test will be skipped
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewRedisPublisher("localhost:6379", 0, "test_foreclosures", 1, 100)
	defer publisher.Close()

	if err := publisher.Ping(ctx); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 0})
	defer client.Close()

	stream := publisher.StreamName(0)
	require.NoError(t, client.Del(ctx, stream).Err())

	err := publisher.Publish(ctx, KeyCase, []byte(`{"docket_number":"DBD-CV23-6045123-S"}`))
	require.NoError(t, err)

	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	encoded, ok := entries[0].Values[KeyCase].(string)
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"docket_number":"DBD-CV23-6045123-S"}`, string(decoded))

	assert.NoError(t, publisher.TrimStreams(ctx))
}

func TestRedisPublisherUnreachable(t *testing.T) {
	publisher := NewRedisPublisher("127.0.0.1:1", 0, "test_foreclosures", 0, 100)
	defer publisher.Close()

	assert.Equal(t, "test_foreclosures:0", publisher.StreamName(0))
	err := publisher.Publish(context.Background(), KeyDefendant, []byte("{}"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "[publisher] redis: xadd to test_foreclosures:0")
}
