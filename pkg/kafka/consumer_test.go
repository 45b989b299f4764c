package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	applogger "FinSignal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHandler struct {
	fails int
	calls int
}

func (h *flakyHandler) Topic() string { return "ohlc.updated" }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.fails {
		return errors.New("boom")
	}
	return nil
}

type panicHandler struct{}

func (panicHandler) Topic() string                        { return "ohlc.updated" }
func (panicHandler) Handle(context.Context, []byte) error { panic("bad payload") }

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, 2*time.Second, attempt)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer(applogger.Nop())
	assert.EqualError(t, err, "brokers are required")
}

func TestSafeHandleRecoversPanic(t *testing.T) {
	c, err := NewConsumer(applogger.Nop(), WithConsumerBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)

	err = c.safeHandle(context.Background(), panicHandler{}, nil)
	assert.ErrorContains(t, err, "bad payload")
}

func TestRegisterHandlerKeepsFirst(t *testing.T) {
	c, err := NewConsumer(applogger.Nop(), WithConsumerBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)

	first := &flakyHandler{}
	c.RegisterHandler(first)
	c.RegisterHandler(&flakyHandler{fails: 1})
	assert.Same(t, first, c.handlers["ohlc.updated"])
}

func TestSleepCtxStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Minute))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))
}
