package threadpool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkQueueFIFO(t *testing.T) {
	q := newWorkQueue()
	var order []int
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Send(NewJob{Run: func(int) { order = append(order, i) }}))
	}
	require.Equal(t, 5, q.Len())

	q.Seal(1)
	for i := 0; i < 5; i++ {
		msg, err := q.Receive()
		require.NoError(t, err)
		require.IsType(t, NewJob{}, msg)
		msg.(NewJob).Run(0)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	msg, err := q.Receive()
	require.NoError(t, err)
	assert.Equal(t, Terminate{}, msg)

	_, err = q.Receive()
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestWorkQueueReceiveBlocks(t *testing.T) {
	q := newWorkQueue()
	got := make(chan Message, 1)
	go func() {
		msg, err := q.Receive()
		if err == nil {
			got <- msg
		}
	}()

	select {
	case <-got:
		t.Fatal("Receive returned on an empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, q.Send(Terminate{}))
	select {
	case msg := <-got:
		assert.Equal(t, Terminate{}, msg)
	case <-time.After(time.Second):
		t.Fatal("Receive did not wake up")
	}
}

func TestWorkQueueExactlyOnceDelivery(t *testing.T) {
	const (
		consumers = 8
		messages  = 2000
	)
	q := newWorkQueue()

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
		wg   sync.WaitGroup
	)
	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				msg, err := q.Receive()
				if err != nil {
					return
				}
				if job, ok := msg.(NewJob); ok {
					job.Run(0)
					continue
				}
				return
			}
		}()
	}

	for i := 0; i < messages; i++ {
		require.NoError(t, q.Send(NewJob{Run: func(int) {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		}}))
	}
	assert.Equal(t, consumers, q.Seal(consumers))
	wg.Wait()

	require.Len(t, seen, messages)
	for i, n := range seen {
		assert.Equal(t, 1, n, "message %d", i)
	}
}

func TestWorkQueueSendAfterSeal(t *testing.T) {
	q := newWorkQueue()
	q.Seal(0)
	assert.ErrorIs(t, q.Send(Terminate{}), ErrPoolClosed)
	assert.Zero(t, q.Seal(3), "a sealed queue takes no more terminates")
}
