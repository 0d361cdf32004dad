package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbook/models"
)

func TestMemoryStoreGetMissingReturnsNil(t *testing.T) {
	store := NewMemoryStore()
	conv, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv := models.NewConversation("user-U")
	conv.Resource = "badminton"
	conv.Advance(models.PhaseMonthView)
	require.NoError(t, store.Save(ctx, conv))

	loaded, err := store.Get(ctx, "user-U")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, models.PhaseMonthView, loaded.Phase)
	assert.Equal(t, "badminton", loaded.Resource)
	assert.Equal(t, conv.Seq, loaded.Seq)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv := models.NewConversation("user-U")
	require.NoError(t, store.Save(ctx, conv))

	first, err := store.Get(ctx, "user-U")
	require.NoError(t, err)
	first.Resource = "scribbled"

	second, err := store.Get(ctx, "user-U")
	require.NoError(t, err)
	assert.Empty(t, second.Resource, "mutations must not leak before Save")
}

func TestLockSerializesPerUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, models.NewConversation("user-U")))

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := store.Lock("user-U")
			defer unlock()

			conv, err := store.Get(ctx, "user-U")
			if err != nil || conv == nil {
				t.Error("load under lock failed")
				return
			}
			conv.Seq++
			if err := store.Save(ctx, conv); err != nil {
				t.Error("save under lock failed")
			}
		}()
	}
	wg.Wait()

	conv, err := store.Get(ctx, "user-U")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), conv.Seq, "no lost updates under per-user lock")
}

func TestLockDifferentUsersDoNotBlock(t *testing.T) {
	store := NewMemoryStore()

	unlockA := store.Lock("user-A")
	done := make(chan struct{})
	go func() {
		unlockB := store.Lock("user-B")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
