package server

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryCredentialStore_Lifecycle(t *testing.T) {
	req := require.New(t)
	store := NewMemoryCredentialStore()

	req.True(store.TryInsert("alice", "s1"))
	req.False(store.TryInsert("alice", "other"), "insert must not overwrite")

	secret, ok := store.TryGet("alice")
	req.True(ok)
	req.Equal("s1", secret)

	req.False(store.TryCompareAndSwap("alice", "wrong", "s2"))
	req.True(store.TryCompareAndSwap("alice", "s1", "s2"))
	req.False(store.TryCompareAndSwap("alice", "s1", "s3"), "stale secret must not swap")

	secret, _ = store.TryGet("alice")
	req.Equal("s2", secret)

	req.True(store.TryRemove("alice"))
	req.False(store.TryRemove("alice"))

	_, ok = store.TryGet("alice")
	req.False(ok)
	req.False(store.TryCompareAndSwap("alice", "s2", "s3"), "absent user must not swap")

	req.True(store.TryInsert("alice", "fresh"), "removed username can be reused")
}

func TestMemoryCredentialStore_UsernamesSorted(t *testing.T) {
	store := NewMemoryCredentialStore()
	require.Empty(t, store.Usernames())
	require.NotNil(t, store.Usernames())

	for _, name := range []string{"carol", "alice", "bob"} {
		store.TryInsert(name, NewSecret())
	}

	require.Equal(t, []string{"alice", "bob", "carol"}, store.Usernames())
}

func TestMemoryCredentialStore_ConcurrentCompareAndSwap(t *testing.T) {
	store := NewMemoryCredentialStore()
	store.TryInsert("alice", "initial")

	const contenders = 32
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	wg.Add(contenders)
	for i := 0; i < contenders; i++ {
		go func(i int) {
			defer wg.Done()
			if store.TryCompareAndSwap("alice", "initial", fmt.Sprintf("next-%d", i)) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
}

func TestNewSecret_IsUnique(t *testing.T) {
	require.NotEqual(t, NewSecret(), NewSecret())
}
