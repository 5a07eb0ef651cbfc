package events

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/domain"
)

func TestHub_PublishReachesSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish("hello")
	assert.Equal(t, "hello", <-a)
	assert.Equal(t, "hello", <-b)
}

func TestHub_SlowSubscriberDropsNotBlocks(t *testing.T) {
	h := NewHub()
	slow := h.Subscribe()
	defer h.Unsubscribe(slow)

	// fill the buffer and keep publishing; Publish must not block
	for i := 0; i < 50; i++ {
		h.Publish("evt")
	}
	assert.Len(t, slow, cap(slow))
}

func TestHub_ConcurrentPublish(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Publish("evt")
			}
		}()
	}
	wg.Wait()
	assert.Len(t, ch, cap(ch))
}

func TestHub_UnsubscribedChannelStopsReceiving(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	h.Publish("after")
	_, open := <-ch
	assert.False(t, open)
}

func TestMake_Envelope(t *testing.T) {
	raw := Make(TypeRunStarted, map[string]any{"runId": "r1"})

	var evt Event
	require.NoError(t, json.Unmarshal([]byte(raw), &evt))
	assert.Equal(t, TypeRunStarted, evt.Type)
	assert.False(t, evt.At.IsZero())

	var data map[string]string
	require.NoError(t, json.Unmarshal(evt.Data, &data))
	assert.Equal(t, "r1", data["runId"])
}

func TestJobCreated_Payload(t *testing.T) {
	raw := JobCreated(domain.Job{ID: 7, Title: "Drupal Dev", Company: "Acme", Source: "boardA", RelevanceScore: 8.5})

	var evt Event
	require.NoError(t, json.Unmarshal([]byte(raw), &evt))
	assert.Equal(t, TypeJobCreated, evt.Type)

	var data map[string]any
	require.NoError(t, json.Unmarshal(evt.Data, &data))
	assert.Equal(t, "Drupal Dev", data["title"])
	assert.Equal(t, float64(7), data["id"])
}
