package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"juntas/pkg/domain"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/platform/audit/hub"
	"juntas/pkg/platform/audit/store/memory"
	"juntas/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	usuarioID := domain.UsuarioID(12)
	err := pub.Emit(context.Background(), audit.Event{
		UsuarioID: usuarioID,
		Action:    string(audit.EventJuntaCreada),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), usuarioID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventJuntaCreada), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	usuarioID := domain.UsuarioID(4)
	err := pub.Emit(context.Background(), audit.Event{
		UsuarioID: usuarioID,
		Action:    string(audit.EventLoginSucceeded),
	})
	require.NoError(t, err)

	pub.Close()

	events, err := pub.List(context.Background(), usuarioID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	usuarioID := domain.UsuarioID(9)
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			UsuarioID: usuarioID,
			Action:    string(audit.EventReporteExportado),
		}))
	}
	pub.Close()

	events, err := store.ListByUsuario(context.Background(), usuarioID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{
				UsuarioID: 1,
				Action:    string(audit.EventLoginFailed),
			})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_ComplianceIsSynchronousEvenWhenAsync(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		UsuarioID: 3,
		Action:    string(audit.EventCertificadoEmitido),
	}))

	events, err := store.ListByUsuario(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, events, 1, "compliance events are persisted before Emit returns")
}

type failingStore struct{ *memory.InMemoryStore }

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("db down") }

func TestPublisher_ComplianceFailsClosed(t *testing.T) {
	pub := NewPublisher(failingStore{memory.NewInMemoryStore()})
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventMandatarioCreado)})
	require.Error(t, err)
}

func TestPublisher_EnrichesFromContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithUsuarioID(ctx, 21)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", "curl/8")

	require.NoError(t, pub.Emit(ctx, audit.Event{Action: string(audit.EventJuntaActualizada)}))

	events, err := pub.List(context.Background(), 21)
	require.NoError(t, err)
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, fixed, e.Timestamp)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "10.0.0.1", e.IP)
	assert.Equal(t, "curl/8", e.UserAgent)
	assert.NotEqual(t, "", e.ID.String())
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		UsuarioID: 5,
		Action:    string(audit.EventUsuarioCreado),
		Timestamp: customTime,
	}))

	events, err := pub.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_ForwardsToSinks(t *testing.T) {
	store := memory.NewInMemoryStore()
	h := hub.New(10)
	pub := NewPublisher(store, WithSink(h))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventPeriodoCambiado)}))

	recent := h.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, string(audit.EventPeriodoCambiado), recent[0].Action)

	filtered, err := pub.Recent(context.Background(), []string{string(audit.EventLogout)}, 10)
	require.NoError(t, err)
	assert.Empty(t, filtered)
}
