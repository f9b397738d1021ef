package rabbitmq_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"productapi/internal/models"
	"productapi/pkg/rabbitmq"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChannel is a mock implementation of rabbitmq.Channel
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	a := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return a.Get(0).(amqp.Queue), a.Error(1)
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	a := m.Called(exchange, key, mandatory, immediate, msg)
	return a.Error(0)
}

func (m *MockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	a := m.Called(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(<-chan amqp.Delivery), a.Error(1)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

// recordingAcknowledger tracks acks and nacks of fake deliveries.
type recordingAcknowledger struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
	done   chan struct{}
}

func (r *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	r.mu.Lock()
	r.acked = append(r.acked, tag)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	r.mu.Lock()
	r.nacked = append(r.nacked, tag)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	return r.Nack(tag, false, requeue)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newClient(t *testing.T, ch *MockChannel) *rabbitmq.Client {
	t.Helper()
	ch.On("QueueDeclare", rabbitmq.ProductEventsQueue, true, false, false, false, amqp.Table(nil)).
		Return(amqp.Queue{Name: rabbitmq.ProductEventsQueue}, nil).Once()
	client, err := rabbitmq.NewClientWithChannel(ch, quietLogger())
	require.NoError(t, err)
	return client
}

func TestNewClientWithChannel_DeclareFailureClosesChannel(t *testing.T) {
	ch := new(MockChannel)
	ch.On("QueueDeclare", rabbitmq.ProductEventsQueue, true, false, false, false, amqp.Table(nil)).
		Return(amqp.Queue{}, errors.New("access refused")).Once()
	ch.On("Close").Return(nil).Once()

	client, err := rabbitmq.NewClientWithChannel(ch, quietLogger())
	assert.Nil(t, client)
	assert.ErrorContains(t, err, "failed to declare product_events")
	ch.AssertExpectations(t)
}

func TestPublishProductEvent(t *testing.T) {
	ch := new(MockChannel)
	client := newClient(t, ch)
	product := models.Product{ID: 5, Name: "Intel Core", Price: 300, Availability: true}

	var published amqp.Publishing
	ch.On("Publish", "", rabbitmq.ProductEventsQueue, false, false, mock.AnythingOfType("amqp.Publishing")).
		Run(func(args mock.Arguments) { published = args.Get(4).(amqp.Publishing) }).
		Return(nil).Once()

	err := client.PublishProductEvent(context.Background(), "product.created", product)
	require.NoError(t, err)

	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, "product.created", published.Type)
	assert.Equal(t, amqp.Persistent, published.DeliveryMode)
	assert.NotEmpty(t, published.MessageId)

	var event rabbitmq.ProductEvent
	require.NoError(t, json.Unmarshal(published.Body, &event))
	assert.Equal(t, "product.created", event.Event)
	assert.Equal(t, product, event.Product)
	ch.AssertExpectations(t)
}

func TestPublishProductEvent_Errors(t *testing.T) {
	ch := new(MockChannel)
	client := newClient(t, ch)

	ch.On("Publish", "", rabbitmq.ProductEventsQueue, false, false, mock.Anything).
		Return(errors.New("channel closed")).Once()
	err := client.PublishProductEvent(context.Background(), "product.deleted", models.Product{ID: 1})
	assert.ErrorContains(t, err, "failed to publish message")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = client.PublishProductEvent(ctx, "product.deleted", models.Product{ID: 1})
	assert.ErrorIs(t, err, context.Canceled)
	ch.AssertExpectations(t)
}

func TestConsumeProductEvents_AcksAndNacks(t *testing.T) {
	ch := new(MockChannel)
	client := newClient(t, ch)

	deliveries := make(chan amqp.Delivery, 2)
	ch.On("Consume", rabbitmq.ProductEventsQueue, "", false, false, false, false, amqp.Table(nil)).
		Return((<-chan amqp.Delivery)(deliveries), nil).Once()

	ack := &recordingAcknowledger{done: make(chan struct{}, 2)}
	body, _ := json.Marshal(rabbitmq.ProductEvent{Event: "product.updated", Product: models.Product{ID: 2}})
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("not json")}
	close(deliveries)

	require.NoError(t, client.ConsumeProductEvents(rabbitmq.LogProductEvent(quietLogger())))

	for i := 0; i < 2; i++ {
		select {
		case <-ack.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for deliveries to be settled")
		}
	}

	ack.mu.Lock()
	defer ack.mu.Unlock()
	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
}

func TestClose(t *testing.T) {
	ch := new(MockChannel)
	client := newClient(t, ch)
	ch.On("Close").Return(errors.New("already closed")).Once()

	err := client.Close()
	assert.ErrorContains(t, err, "failed to close channel")
	ch.AssertExpectations(t)
}
