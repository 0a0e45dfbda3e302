package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishByTopic(t *testing.T) {
	hub := NewHub()

	employeeCh, cancelEmployee := hub.Subscribe("employee:1")
	defer cancelEmployee()
	hrCh, cancelHR := hub.Subscribe("company:1:hr", "employee:9")
	defer cancelHR()

	hub.Publish(Event{Topic: "employee:1", Event: "notification", Data: "approved"})
	hub.Publish(Event{Topic: "company:1:hr", Event: "notification", Data: "pending"})

	select {
	case ev := <-employeeCh:
		assert.Equal(t, "approved", ev.Data)
	default:
		t.Fatal("employee subscriber did not receive its event")
	}

	select {
	case ev := <-hrCh:
		assert.Equal(t, "pending", ev.Data)
	default:
		t.Fatal("hr subscriber did not receive its event")
	}

	assert.Empty(t, employeeCh, "topics do not leak into other subscriptions")
}

func TestHub_Cleanup(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("a", "b")
	require.Equal(t, 1, hub.SubscriberCount("a"))

	cancel()
	cancel()

	assert.Equal(t, 0, hub.SubscriberCount("a"))
	assert.Equal(t, 0, hub.SubscriberCount("b"))
	_, open := <-ch
	assert.False(t, open)

	hub.Publish(Event{Topic: "a"})
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe("t")
	defer cancel()

	for i := 0; i < hub.bufferSize*2; i++ {
		hub.Publish(Event{Topic: "t", Data: i})
	}
}
