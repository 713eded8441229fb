package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcmp "github.com/planlens/PlanLens-Compare/internal/application/comparison"
	"github.com/planlens/PlanLens-Compare/internal/application/polling"
	"github.com/planlens/PlanLens-Compare/internal/config"
)

// fakeWriter records written messages.
type fakeWriter struct {
	messages []segkafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...segkafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, nil)
	assert.Error(t, err)
}

func TestPublishStatusKeysByJob(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil)

	ev := appcmp.StatusEvent{JobID: "job_1", Phase: polling.PhaseCompleted}
	require.NoError(t, p.PublishStatus(context.Background(), ev))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, TopicComparisonStatus, msg.Topic)
	assert.Equal(t, "job_1", string(msg.Key))

	var decoded appcmp.StatusEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, polling.PhaseCompleted, decoded.Phase)
	assert.EqualValues(t, 1, p.Sent())
}

func TestPublishCountsFailures(t *testing.T) {
	w := &fakeWriter{err: fmt.Errorf("broker down")}
	p := NewProducerWithWriter(w, nil)

	err := p.PublishRequested(context.Background(), RequestedEvent{
		SourceBlockRef: "a", TargetBlockRef: "b",
	})
	assert.Error(t, err)
	assert.EqualValues(t, 1, p.Failed())
	assert.EqualValues(t, 0, p.Sent())
}

func TestPublishAfterCloseRejected(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.PublishStatus(context.Background(), appcmp.StatusEvent{JobID: "job_1"})
	assert.Error(t, err)
}
