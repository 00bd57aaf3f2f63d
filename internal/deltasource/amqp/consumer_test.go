package amqp

import (
	"context"
	"sync"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/deltarouter"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
	"github.com/mu-semtech/delta-indexer/internal/triplestore"
	"github.com/mu-semtech/delta-indexer/internal/updatehandler"
)

type fakeGateway struct{}

func (f *fakeGateway) Select(ctx context.Context, query string, groups config.AllowedGroups) ([]triplestore.Binding, error) {
	return nil, nil
}
func (f *fakeGateway) Ask(ctx context.Context, query string, groups config.AllowedGroups) (bool, error) {
	return false, nil
}
func (f *fakeGateway) Update(ctx context.Context, query string, groups config.AllowedGroups) error {
	return nil
}
func (f *fakeGateway) SudoSelect(ctx context.Context, query string) ([]triplestore.Binding, error) {
	return nil, nil
}
func (f *fakeGateway) SudoAsk(ctx context.Context, query string) (bool, error) { return false, nil }
func (f *fakeGateway) SudoUpdate(ctx context.Context, query string) error     { return nil }

type fakeAcker struct {
	mu      sync.Mutex
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcker) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = true
	return nil
}
func (f *fakeAcker) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = true
	f.requeue = requeue
	return nil
}
func (f *fakeAcker) Reject(tag uint64, requeue bool) error { return nil }

func testModel() *config.Model {
	return config.NewModel(map[string]config.TypeDefinition{
		"documents": {RDFTypes: []string{"http://example.org/Document"}},
	})
}

func TestProcessEnqueuesAndAcksValidDelivery(t *testing.T) {
	router := deltarouter.New(testModel(), &fakeGateway{})
	queue := updatehandler.NewCoalescingQueue()
	c := NewConsumer("", "deltas", router, queue, nil)

	acker := &fakeAcker{}
	body := []byte(`[{"inserts":[{"subject":{"type":"uri","value":"http://example.org/doc1"},"predicate":{"type":"uri","value":"` + rdfmodel.RDFTypeIRI + `"},"object":{"type":"uri","value":"http://example.org/Document"}}],"deletes":[]}]`)
	delivery := amqp.Delivery{Acknowledger: acker, Body: body}

	c.process(context.Background(), delivery)

	assert.True(t, acker.acked)
	assert.Equal(t, 1, queue.Len())
}

func TestProcessAcksMalformedPayloadWithoutEnqueuing(t *testing.T) {
	router := deltarouter.New(testModel(), &fakeGateway{})
	queue := updatehandler.NewCoalescingQueue()
	c := NewConsumer("", "deltas", router, queue, nil)

	acker := &fakeAcker{}
	delivery := amqp.Delivery{Acknowledger: acker, Body: []byte(`{"not":"an array"}`)}

	c.process(context.Background(), delivery)

	assert.True(t, acker.acked)
	assert.Equal(t, 0, queue.Len())
}

func TestProcessNacksWithRequeueWhenQueueCancelled(t *testing.T) {
	router := deltarouter.New(testModel(), &fakeGateway{})
	// A full bounded queue makes Enqueue wait for a slot, so the cancelled
	// context below makes it fail.
	queue := updatehandler.NewBoundedCoalescingQueue(1)
	require.NoError(t, queue.Enqueue(context.Background(), rdfmodel.UpdateJob{Subject: "http://example.org/other", TypeName: "documents", Op: rdfmodel.OpUpdate}))
	c := NewConsumer("", "deltas", router, queue, nil)

	acker := &fakeAcker{}
	body := []byte(`[{"inserts":[{"subject":{"type":"uri","value":"http://example.org/doc1"},"predicate":{"type":"uri","value":"` + rdfmodel.RDFTypeIRI + `"},"object":{"type":"uri","value":"http://example.org/Document"}}],"deletes":[]}]`)
	delivery := amqp.Delivery{Acknowledger: acker, Body: body}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.process(ctx, delivery)

	require.True(t, acker.nacked)
	assert.True(t, acker.requeue)
}
