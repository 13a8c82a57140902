package job

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	shutdown := make(chan struct{})
	wg := &sync.WaitGroup{}
	defer close(shutdown)
	q := NewQueue(shutdown, wg)
	assert.Equal(t, 0, q.Len(), "fresh queue")

	select {
	case <-q.Ready():
		t.Error("Value from q.Ready before any values enqueued")
	default:
	}

	// When this proceeds, the value will be in the queue
	q.Enqueue(&Job{ID: "job 1", Kind: "push"})
	q.Sync()
	assert.Equal(t, 1, q.Len(), "after enqueuing one item (and sync)")

	var kinds []string
	q.ForEach(func(_ int, j *Job) bool {
		kinds = append(kinds, j.Kind)
		return true
	})
	assert.Equal(t, []string{"push"}, kinds)

	// This should proceed eventually
	j := <-q.Ready()
	assert.Equal(t, ID("job 1"), j.ID)
	q.Sync()
	assert.Equal(t, 0, q.Len(), "after dequeuing only item (and sync)")

	// This should not proceed, because the queue is empty
	select {
	case j = <-q.Ready():
		t.Errorf("Dequeued from empty queue: %#v", j)
	default:
	}
}

func TestQueueOrder(t *testing.T) {
	shutdown := make(chan struct{})
	wg := &sync.WaitGroup{}
	defer close(shutdown)
	q := NewQueue(shutdown, wg)

	for _, id := range []ID{"a", "b", "c"} {
		q.Enqueue(&Job{ID: id})
	}
	var got []ID
	for i := 0; i < 3; i++ {
		got = append(got, (<-q.Ready()).ID)
	}
	assert.Equal(t, []ID{"a", "b", "c"}, got)
}

func TestStatusCache(t *testing.T) {
	c := &StatusCache{Size: 2}
	c.SetStatus("a", Status{StatusString: StatusQueued})
	c.SetStatus("a", Status{StatusString: StatusSucceeded})
	c.SetStatus("b", Status{StatusString: StatusFailed, Err: "boom"})

	s, ok := c.Status("a")
	assert.True(t, ok)
	assert.Equal(t, StatusSucceeded, s.StatusString)

	c.SetStatus("c", Status{StatusString: StatusRunning})
	_, ok = c.Status("a")
	assert.False(t, ok, "oldest status evicted")

	s, ok = c.Status("b")
	assert.True(t, ok)
	assert.Equal(t, "boom", s.Error())
}

func TestStatusCacheZeroSize(t *testing.T) {
	c := &StatusCache{}
	c.SetStatus("a", Status{StatusString: StatusQueued})
	_, ok := c.Status("a")
	assert.False(t, ok)
}
