package cooldown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateAdmitRecordCycle(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore(), time.Hour)

	t1 := int64(1_700_000_000_000)

	ok, err := gate.Admit(ctx, "0xaaa", t1)
	require.NoError(t, err)
	assert.True(t, ok, "owner with no record admits")

	require.NoError(t, gate.Record(ctx, "0xaaa", t1))

	// 30 minutes later: still inside the window.
	ok, err = gate.Admit(ctx, "0xaaa", t1+30*60*1000)
	require.NoError(t, err)
	assert.False(t, ok)

	// Exactly one hour later: window has elapsed.
	ok, err = gate.Admit(ctx, "0xaaa", t1+60*60*1000)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateIsPerOwner(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore(), time.Hour)
	t1 := int64(1_700_000_000_000)

	require.NoError(t, gate.Record(ctx, "0xaaa", t1))

	ok, err := gate.Admit(ctx, "0xbbb", t1+1000)
	require.NoError(t, err)
	assert.True(t, ok, "one owner's cooldown does not gate another")
}

func TestGateDefaultWindow(t *testing.T) {
	gate := NewGate(NewMemoryStore(), 0)
	assert.Equal(t, DefaultWindow.Milliseconds(), gate.windowMs)
}

// failingStore always errors, standing in for a flapping database.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, owner string) (int64, bool, error) {
	return 0, false, errors.New("store down")
}

func (failingStore) Set(ctx context.Context, owner string, ts int64) error {
	return errors.New("store down")
}

func TestGateSurfacesStoreErrors(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(failingStore{}, time.Hour)

	ok, err := gate.Admit(ctx, "0xaaa", 1)
	assert.False(t, ok, "store error never admits")
	assert.Error(t, err)

	assert.Error(t, gate.Record(ctx, "0xaaa", 1))
}
