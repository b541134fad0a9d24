package dependencies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkQueueFIFO(t *testing.T) {
	q := NewWorkQueue()
	_, ok := q.PopFront()
	assert.False(t, ok, "empty queue must not pop")

	q.PushBack("/p/node_modules", "a")
	q.PushBack("/p/node_modules", "b")
	q.PushBack("/p/node_modules/a/node_modules", "c")
	assert.Equal(t, 3, q.Len())

	var got []string
	for {
		item, ok := q.PopFront()
		if !ok {
			break
		}
		got = append(got, item.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, q.Len())
}

func TestWorkQueueInterleaved(t *testing.T) {
	q := NewWorkQueue()
	q.PushBack("d", "1")
	first, ok := q.PopFront()
	require.True(t, ok)
	q.PushBack("d", "2")
	q.PushBack("d", "3")
	second, _ := q.PopFront()

	assert.Equal(t, WorkItem{SearchDir: "d", Name: "1"}, first)
	assert.Equal(t, "2", second.Name)

	q.Clear()
	assert.Equal(t, 0, q.Len())
}
