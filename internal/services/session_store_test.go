package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentpulse/internal/config"
	"studentpulse/internal/shared/testutil"
	"studentpulse/pkg/contracts/domain"
)

func newStore(ttl time.Duration, capacity uint64) *SessionStore {
	return NewSessionStore(config.SessionConfig{TTL: ttl, Capacity: capacity}, nil, testutil.DiscardLogger())
}

func TestSessionStore_CreateGetDelete(t *testing.T) {
	store := newStore(time.Minute, 0)
	ds := testutil.StudentsDataset()

	session := store.Create(context.Background(), "class.csv", domain.SourceCSV, ds)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "class.csv", got.FileName)
	assert.Equal(t, domain.SourceCSV, got.Format)
	assert.Equal(t, ds, got.Dataset)

	require.NoError(t, store.Delete(session.ID))
	_, err = store.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(session.ID), ErrSessionNotFound)
}

func TestSessionStore_UniqueIDs(t *testing.T) {
	store := newStore(time.Minute, 0)
	a := store.Create(context.Background(), "a.csv", domain.SourceCSV, testutil.StudentsDataset())
	b := store.Create(context.Background(), "a.csv", domain.SourceCSV, testutil.StudentsDataset())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := newStore(50*time.Millisecond, 0)
	session := store.Create(context.Background(), "a.csv", domain.SourceCSV, testutil.StudentsDataset())

	time.Sleep(120 * time.Millisecond)
	_, err := store.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_GetRefreshesTTL(t *testing.T) {
	store := newStore(300*time.Millisecond, 0)
	session := store.Create(context.Background(), "a.csv", domain.SourceCSV, testutil.StudentsDataset())

	time.Sleep(180 * time.Millisecond)
	_, err := store.Get(session.ID)
	require.NoError(t, err)

	time.Sleep(180 * time.Millisecond)
	_, err = store.Get(session.ID)
	assert.NoError(t, err, "a session in use must not expire")
}

func TestSessionStore_Capacity(t *testing.T) {
	store := newStore(time.Minute, 2)
	ctx := context.Background()

	first := store.Create(ctx, "1.csv", domain.SourceCSV, testutil.StudentsDataset())
	store.Create(ctx, "2.csv", domain.SourceCSV, testutil.StudentsDataset())
	store.Create(ctx, "3.csv", domain.SourceCSV, testutil.StudentsDataset())

	assert.Equal(t, 2, store.Len())
	_, err := store.Get(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_StartStop(t *testing.T) {
	store := newStore(20*time.Millisecond, 0)
	store.Start()
	defer store.Stop()

	store.Create(context.Background(), "a.csv", domain.SourceCSV, testutil.StudentsDataset())
	assert.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSessionStore_StopWithoutStart(t *testing.T) {
	store := newStore(time.Minute, 0)

	done := make(chan struct{})
	go func() {
		store.Stop()
		store.Start()
		store.Start()
		store.Stop()
		store.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked")
	}
}
