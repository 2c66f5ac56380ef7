package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harmelin-systems/elevator-core/internal/domain"
	"github.com/harmelin-systems/elevator-core/internal/queue"
)

func TestEmptyQueue(t *testing.T) {
	q := queue.New(10)
	assert.True(t, q.IsEmpty())
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestPushThenPop(t *testing.T) {
	q := queue.New(10)
	req := domain.NewCabRequest(8)

	assert.True(t, q.PushUnique(req))
	assert.False(t, q.IsEmpty())

	got, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, req, got)
	assert.True(t, q.IsEmpty())
}

func TestPushPeekPop(t *testing.T) {
	q := queue.New(10)
	req := domain.NewCabRequest(8)

	assert.True(t, q.PushUnique(req))

	peeked, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, req, peeked)
	assert.False(t, q.IsEmpty())

	popped, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, req, popped)
	assert.True(t, q.IsEmpty())
}

func TestFIFOOrder(t *testing.T) {
	q := queue.New(10)
	req1 := domain.NewCabRequest(8)
	req2 := domain.NewCabRequest(10)

	assert.True(t, q.PushUnique(req1))
	peeked, _ := q.Peek()
	assert.Equal(t, req1, peeked)

	assert.True(t, q.PushUnique(req2))
	peeked, _ = q.Peek()
	assert.Equal(t, req1, peeked)

	popped, _ := q.Pop()
	assert.Equal(t, req1, popped)
	assert.False(t, q.IsEmpty())
}

func TestPushUniqueRejectsDuplicate(t *testing.T) {
	q := queue.New(10)
	req := domain.NewHallRequest(3, domain.DirectionUp)

	assert.True(t, q.PushUnique(req))
	assert.False(t, q.PushUnique(req))
	assert.Equal(t, 1, q.Size())
}

func TestPushUniqueRejectsOverflow(t *testing.T) {
	q := queue.New(2)
	assert.True(t, q.PushUnique(domain.NewCabRequest(1)))
	assert.True(t, q.PushUnique(domain.NewCabRequest(2)))
	assert.False(t, q.PushUnique(domain.NewCabRequest(3)))
	assert.Equal(t, 2, q.Size())
}

func TestRetainKeepsOrderOfRemoved(t *testing.T) {
	q := queue.New(10)
	retained := domain.NewCabRequest(8)
	removed := domain.NewCabRequest(10)

	q.PushUnique(retained)
	q.PushUnique(removed)

	got := q.Retain(func(r domain.Request) bool { return r.Target() == 8 })
	assert.Equal(t, []domain.Request{removed}, got)

	peeked, _ := q.Peek()
	assert.Equal(t, retained, peeked)
}

func TestRetainTrueIsNoop(t *testing.T) {
	q := queue.New(10)
	q.PushUnique(domain.NewCabRequest(1))
	q.PushUnique(domain.NewCabRequest(2))

	removed := q.Retain(func(domain.Request) bool { return true })
	assert.Empty(t, removed)
	assert.Equal(t, 2, q.Size())
}

func TestRetainFalseEmptiesQueue(t *testing.T) {
	q := queue.New(10)
	r1 := domain.NewCabRequest(1)
	r2 := domain.NewCabRequest(2)
	q.PushUnique(r1)
	q.PushUnique(r2)

	removed := q.Retain(func(domain.Request) bool { return false })
	assert.Equal(t, []domain.Request{r1, r2}, removed)
	assert.True(t, q.IsEmpty())
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	q := queue.New(10)
	q.PushUnique(domain.NewCabRequest(1))
	q.PushUnique(domain.NewCabRequest(2))
	assert.False(t, q.IsEmpty())

	q.Clear()
	assert.True(t, q.IsEmpty())
	_, ok := q.Pop()
	assert.False(t, ok)
}
