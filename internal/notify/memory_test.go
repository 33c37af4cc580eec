package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryRecordsMessages(t *testing.T) {
	t.Parallel()

	pub := NewMemory()
	id1, err := pub.Publish(context.Background(), "store.confirmed", map[string]string{"url": "https://a.example"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id1)

	id2, err := pub.Publish(context.Background(), "store.dead", "payload")
	require.NoError(t, err)
	require.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "store.confirmed", msgs[0].Topic)
	require.Equal(t, "store.dead", msgs[1].Topic)

	msgs[0].Topic = "mutated"
	require.Equal(t, "store.confirmed", pub.Messages()[0].Topic, "Messages must return a copy")
}

func TestNoopPublish(t *testing.T) {
	t.Parallel()

	id, err := Noop{}.Publish(context.Background(), "any", nil)
	require.NoError(t, err)
	require.Empty(t, id)
}
