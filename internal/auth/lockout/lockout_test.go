package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/requestcontext"
)

var start = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, e audit.Event) error {
	p.events = append(p.events, e)
	return nil
}

func at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func newService(pub *recordingPublisher) *Service {
	return New(NewInMemory(),
		WithConfig(Config{Attempts: 3, Window: 10 * time.Minute, LockDuration: 15 * time.Minute}),
		WithAuditPublisher(pub),
	)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ana@boyaca.gov.co|10.0.0.5", Key(" Ana@Boyaca.gov.co ", "10.0.0.5"))
}

func TestLocksAfterAttempts(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(pub)

	for i := 1; i <= 2; i++ {
		rec, err := svc.RecordFailure(at(start.Add(time.Duration(i)*time.Minute)), "ana@boyaca.gov.co", "10.0.0.5")
		require.NoError(t, err)
		assert.Equal(t, i, rec.FailureCount)
		assert.Nil(t, rec.LockedUntil)
	}
	require.NoError(t, svc.Check(at(start.Add(3*time.Minute)), "ana@boyaca.gov.co", "10.0.0.5"))

	rec, err := svc.RecordFailure(at(start.Add(3*time.Minute)), "ana@boyaca.gov.co", "10.0.0.5")
	require.NoError(t, err)
	require.NotNil(t, rec.LockedUntil)
	assert.Equal(t, start.Add(18*time.Minute), *rec.LockedUntil)
	require.Len(t, pub.events, 1)
	assert.Equal(t, string(audit.EventLoginBloqueado), pub.events[0].Action)

	err = svc.Check(at(start.Add(10*time.Minute)), "ANA@boyaca.gov.co", "10.0.0.5")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTooManyRequests))
	assert.Contains(t, err.Error(), "8 minutos")

	t.Run("other ip is not affected", func(t *testing.T) {
		assert.NoError(t, svc.Check(at(start.Add(10*time.Minute)), "ana@boyaca.gov.co", "10.0.0.6"))
	})

	t.Run("lock expires", func(t *testing.T) {
		assert.NoError(t, svc.Check(at(start.Add(19*time.Minute)), "ana@boyaca.gov.co", "10.0.0.5"))
	})
}

func TestWindowRestartsCount(t *testing.T) {
	svc := newService(&recordingPublisher{})
	_, err := svc.RecordFailure(at(start), "ana@boyaca.gov.co", "10.0.0.5")
	require.NoError(t, err)
	_, err = svc.RecordFailure(at(start.Add(time.Minute)), "ana@boyaca.gov.co", "10.0.0.5")
	require.NoError(t, err)

	rec, err := svc.RecordFailure(at(start.Add(20*time.Minute)), "ana@boyaca.gov.co", "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.FailureCount)
	assert.Nil(t, rec.LockedUntil)
}

func TestClear(t *testing.T) {
	svc := newService(&recordingPublisher{})
	for i := 0; i < 3; i++ {
		_, err := svc.RecordFailure(at(start), "ana@boyaca.gov.co", "10.0.0.5")
		require.NoError(t, err)
	}
	require.Error(t, svc.Check(at(start), "ana@boyaca.gov.co", "10.0.0.5"))

	require.NoError(t, svc.Clear(at(start), "ana@boyaca.gov.co", "10.0.0.5"))
	assert.NoError(t, svc.Check(at(start), "ana@boyaca.gov.co", "10.0.0.5"))
	require.NoError(t, svc.Clear(at(start), "ana@boyaca.gov.co", "10.0.0.5"))
}
