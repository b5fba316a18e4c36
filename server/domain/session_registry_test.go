package domain

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistry_RegisterAndUnregister(t *testing.T) {
	r := NewSessionRegistry()

	count, err := r.Register(NewSession("p1", "10.0.0.1", "firefox"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = r.Register(NewSession("p2", "10.0.0.2", ""))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	session, ok := r.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "firefox", session.UserAgent)

	count, removed := r.Unregister("p1")
	assert.True(t, removed)
	assert.Equal(t, 1, count)
	assert.False(t, r.Contains("p1"))
}

func TestSessionRegistry_RejectsDuplicate(t *testing.T) {
	r := NewSessionRegistry()
	_, err := r.Register(NewSession("p1", "10.0.0.1", "a"))
	require.NoError(t, err)

	count, err := r.Register(NewSession("p1", "10.0.0.9", "b"))
	require.ErrorIs(t, err, ErrSessionExists)
	assert.Equal(t, 1, count)

	session, _ := r.Get("p1")
	assert.Equal(t, "a", session.UserAgent, "original session must not be replaced")
}

func TestSessionRegistry_ReuseAfterUnregister(t *testing.T) {
	r := NewSessionRegistry()
	_, err := r.Register(NewSession("p1", "", ""))
	require.NoError(t, err)
	r.Unregister("p1")

	count, err := r.Register(NewSession("p1", "", ""))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionRegistry_UnregisterAbsentIsNoop(t *testing.T) {
	r := NewSessionRegistry()
	count, removed := r.Unregister("ghost")
	assert.False(t, removed)
	assert.Equal(t, 0, count)
}

func TestSessionRegistry_RejectsEmptyID(t *testing.T) {
	r := NewSessionRegistry()
	_, err := r.Register(NewSession("", "", ""))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionRegistry_CountMatchesLiveSet(t *testing.T) {
	r := NewSessionRegistry()
	live := map[string]bool{}
	ops := []struct {
		register bool
		id       string
	}{
		{true, "a"}, {true, "b"}, {false, "a"}, {false, "a"}, {true, "c"},
		{false, "zzz"}, {true, "a"}, {true, "b"}, {false, "c"}, {false, "b"},
	}
	for _, op := range ops {
		if op.register {
			if _, err := r.Register(NewSession(op.id, "", "")); err == nil {
				live[op.id] = true
			}
		} else {
			r.Unregister(op.id)
			delete(live, op.id)
		}
		assert.Equal(t, len(live), r.Count())
		assert.GreaterOrEqual(t, r.Count(), 0)
	}
}

func TestSessionRegistry_ConcurrentRegister(t *testing.T) {
	r := NewSessionRegistry()
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Two goroutines race for every ID.
			if _, err := r.Register(NewSession(fmt.Sprintf("s%d", i%25), "", "")); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, accepted)
	assert.Equal(t, 25, r.Count())
	assert.Len(t, r.List(), 25)
}
