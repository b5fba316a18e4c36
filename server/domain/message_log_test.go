package domain

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chat(id string) ChatMessage {
	return NewChatMessage(id, "p1", "", "hello "+id, time.Now())
}

func TestMessageLog_AppendOrder(t *testing.T) {
	l := NewMessageLog(10)
	assert.Empty(t, l.Snapshot())

	l.Append(chat("1"))
	l.Append(chat("2"))
	l.Append(chat("3"))

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "1", snapshot[0].ID)
	assert.Equal(t, "3", snapshot[2].ID)
}

func TestMessageLog_EvictsOldest(t *testing.T) {
	l := NewMessageLog(3)
	for i := 1; i <= 5; i++ {
		l.Append(chat(fmt.Sprint(i)))
	}

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, []string{"3", "4", "5"}, []string{snapshot[0].ID, snapshot[1].ID, snapshot[2].ID})
	assert.Equal(t, 3, l.Len())
}

func TestMessageLog_Recent(t *testing.T) {
	l := NewMessageLog(10)
	for i := 1; i <= 4; i++ {
		l.Append(chat(fmt.Sprint(i)))
	}
	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].ID)
	assert.Len(t, l.Recent(0), 4)
}

func TestMessageLog_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, NewMessageLog(0).Limit())
}

func TestMessageLog_ConcurrentAppend(t *testing.T) {
	l := NewMessageLog(1000)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Append(chat(fmt.Sprintf("%d-%03d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 200)
	// Per-writer order survives the global serialization.
	last := map[byte]string{}
	for _, m := range snapshot {
		w := m.ID[0]
		assert.Less(t, last[w], m.ID)
		last[w] = m.ID
	}
}
