package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub_DeliversToAllSubscribers(t *testing.T) {
	hub := NewHub(discardLogger())
	failing := &recorder{err: errors.New("redis down")}
	ok := &recorder{}
	hub.Subscribe(failing)
	hub.Subscribe(ok)

	event := domain.NewEvent(domain.EventCartChanged, "user-1", "cart-1")
	err := hub.Publish(context.Background(), event)

	require.NoError(t, err)
	require.Len(t, failing.events, 1)
	require.Len(t, ok.events, 1)
	assert.Equal(t, domain.EventCartChanged, ok.events[0].Type)
}

func TestFanout_JoinsErrors(t *testing.T) {
	first := &recorder{err: errors.New("kafka unavailable")}
	second := &recorder{}

	err := Fanout{first, nil, second}.Publish(context.Background(), domain.NewEvent(domain.EventOrderPaid, "u", "o"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka unavailable")
	assert.Len(t, second.events, 1)
}

func TestEmit_SwallowsErrors(t *testing.T) {
	r := &recorder{err: errors.New("boom")}

	assert.NotPanics(t, func() {
		Emit(context.Background(), r, discardLogger(), domain.NewEvent(domain.EventCartChanged, "u", ""))
		Emit(context.Background(), nil, discardLogger(), domain.NewEvent(domain.EventCartChanged, "u", ""))
	})
	assert.Len(t, r.events, 1)
}
