package lmstfy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfilment/common/model"
)

type fakePublisher struct {
	queue string
	data  []byte
	ttl   uint32
	err   error
}

func (f *fakePublisher) Publish(queue string, data []byte, ttl, delay uint32) (string, error) {
	f.queue, f.data, f.ttl = queue, data, ttl
	return "job-1", f.err
}

func TestDecisionPublisher_NotifyDecision(t *testing.T) {
	pub := &fakePublisher{}
	p := NewDecisionPublisher(pub, "shortage-decisions")

	err := p.NotifyDecision(context.Background(), &model.DecisionNotification{
		RequestID:    "r-1",
		ActionType:   model.ActionTypeShortageDecision,
		OrderID:      "ORD-1",
		LineID:       10,
		Action:       "REPLACE",
		Replacements: []string{"SKU-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "shortage-decisions", pub.queue)
	assert.Equal(t, uint32(defaultTTL), pub.ttl)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, "ORD-1", got["order_id"])
	assert.Equal(t, "shortage_decision", got["action_type"])
}

func TestDecisionPublisher_PublishError(t *testing.T) {
	p := NewDecisionPublisher(&fakePublisher{err: errors.New("queue down")}, "q")
	err := p.NotifyDecision(context.Background(), &model.DecisionNotification{OrderID: "ORD-1"})
	assert.EqualError(t, err, "queue down")
}

func TestNewClient(t *testing.T) {
	c := NewClient("127.0.0.1", 7777, "fulfilment", "token")
	require.NotNil(t, c.cli)
	assert.Equal(t, "fulfilment", c.namespace)
}
