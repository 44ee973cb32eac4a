package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitQueue_DrainAllFIFO(t *testing.T) {
	q := newCommitQueue()

	for i := int64(1); i <= 3; i++ {
		require.True(t, q.Enqueue(commit{Seq: i}))
	}
	assert.Equal(t, 3, q.Len())

	batch := q.DrainAll()
	require.Len(t, batch, 3)
	assert.Equal(t, int64(1), batch[0].Seq)
	assert.Equal(t, int64(2), batch[1].Seq)
	assert.Equal(t, int64(3), batch[2].Seq)
	assert.Equal(t, 0, q.Len())
}

func TestCommitQueue_DrainAllEmpty(t *testing.T) {
	q := newCommitQueue()
	assert.Nil(t, q.DrainAll())
}

func TestCommitQueue_SignalCoalesces(t *testing.T) {
	q := newCommitQueue()
	q.Enqueue(commit{Seq: 1})
	q.Enqueue(commit{Seq: 2})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}

	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestCommitQueue_Close(t *testing.T) {
	q := newCommitQueue()
	q.Enqueue(commit{Seq: 1})
	q.Close()

	assert.False(t, q.Enqueue(commit{Seq: 2}), "enqueue after close is rejected")
	assert.False(t, q.Done(), "queue still holds a commit")

	<-q.Wait() // buffered signal from the enqueue
	_, open := <-q.Wait()
	assert.False(t, open, "signal channel is closed")

	q.DrainAll()
	assert.True(t, q.Done())

	q.Close() // idempotent
}

func TestSequence(t *testing.T) {
	var s Sequence
	assert.Equal(t, int64(0), s.Current())
	assert.Equal(t, int64(1), s.Next())
	assert.Equal(t, int64(2), s.Next())
	assert.Equal(t, int64(2), s.Current())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
