package queue

import (
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestMergeDeliveriesDrainsAllSourcesThenReturns(t *testing.T) {
	a := make(chan amqp.Delivery)
	b := make(chan amqp.Delivery)

	var mu sync.Mutex
	got := map[string][]string{}

	finished := make(chan struct{})
	go func() {
		mergeDeliveries(map[string]<-chan amqp.Delivery{"a": a, "b": b}, func(queueName string, d amqp.Delivery) {
			mu.Lock()
			got[queueName] = append(got[queueName], string(d.Body))
			mu.Unlock()
		})
		close(finished)
	}()

	a <- amqp.Delivery{Body: []byte("a1")}
	// One source drops out while the other keeps delivering; the merge
	// must keep handling the remaining source.
	close(a)
	b <- amqp.Delivery{Body: []byte("b1")}
	b <- amqp.Delivery{Body: []byte("b2")}
	close(b)

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("merge did not return after all sources closed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a1"}, got["a"])
	assert.Equal(t, []string{"b1", "b2"}, got["b"])
}

func TestMergeDeliveriesNoSources(t *testing.T) {
	finished := make(chan struct{})
	go func() {
		mergeDeliveries(nil, func(string, amqp.Delivery) {})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("merge with no sources did not return")
	}
}
