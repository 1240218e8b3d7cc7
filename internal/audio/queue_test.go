// SPDX-License-Identifier: MIT
package audio

import (
	"math/rand"
	"runtime"
	"testing"
	"time"
)

func chunkOf(values ...float32) []float32 {
	return values
}

func TestChunkQueueFIFO(t *testing.T) {
	q := NewChunkQueue(16, 4)

	q.Push(chunkOf(1, 2))
	q.Push(chunkOf(3))
	q.Push(chunkOf(4, 5, 6))

	if q.Len() != 3 {
		t.Errorf("Len() = %d after 3 pushes, want 3", q.Len())
	}

	var got []float32
	n := q.Drain(func(chunk []float32) {
		got = append(got, chunk...)
	})

	if q.Len() != 0 {
		t.Errorf("Len() = %d after drain, want 0", q.Len())
	}

	if n != 3 {
		t.Errorf("Drain() delivered %d chunks, want 3", n)
	}
	want := []float32{1, 2, 3, 4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("drained %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %g, want %g (order not preserved)", i, got[i], want[i])
		}
	}
	if q.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", q.Dropped())
	}
}

func TestChunkQueueDrainEmpty(t *testing.T) {
	q := NewChunkQueue(4, 4)

	done := make(chan int, 1)
	go func() {
		done <- q.Drain(func([]float32) {})
	}()

	select {
	case n := <-done:
		if n != 0 {
			t.Errorf("Drain() on empty queue delivered %d chunks, want 0", n)
		}
	case <-time.After(time.Second):
		t.Fatal("Drain() blocked on empty queue")
	}
}

func TestChunkQueueDropOldest(t *testing.T) {
	q := NewChunkQueue(4, 1)

	for i := 0; i < 6; i++ {
		q.Push(chunkOf(float32(i)))
	}

	if q.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", q.Dropped())
	}

	var got []float32
	q.Drain(func(chunk []float32) {
		got = append(got, chunk...)
	})

	// Oldest chunks (0 and 1) were displaced; the newest four survive in order.
	want := []float32{2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("drained %d chunks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestChunkQueuePushNeverBlocks(t *testing.T) {
	q := NewChunkQueue(1, 1)

	done := make(chan struct{})
	go func() {
		// Far more pushes than capacity with no consumer.
		for i := 0; i < 10000; i++ {
			q.Push(chunkOf(float32(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Push blocked with a full queue and no consumer")
	}

	if q.Dropped() == 0 {
		t.Error("expected drops under sustained overflow")
	}
}

// TestChunkQueueConcurrentFIFO feeds a known sequence of distinct values from
// a producer goroutine with randomized pacing and verifies the consumer
// observes them in exactly the enqueue order.
func TestChunkQueueConcurrentFIFO(t *testing.T) {
	const total = 2000

	// Capacity covers the whole sequence so ordering, not overflow, is under test.
	q := NewChunkQueue(total, 1)
	rng := rand.New(rand.NewSource(42))

	go func() {
		for i := 0; i < total; i++ {
			q.Push(chunkOf(float32(i)))
			if rng.Intn(8) == 0 {
				runtime.Gosched()
			}
		}
	}()

	var got []float32
	deadline := time.Now().Add(10 * time.Second)
	for len(got) < total {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after observing %d of %d values", len(got), total)
		}
		q.Drain(func(chunk []float32) {
			got = append(got, chunk...)
		})
		runtime.Gosched()
	}

	for i := range got {
		if got[i] != float32(i) {
			t.Fatalf("value %d = %g, want %d: FIFO order violated", i, got[i], i)
		}
	}
	if q.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", q.Dropped())
	}
}

func BenchmarkChunkQueuePushDrain(b *testing.B) {
	q := NewChunkQueue(64, 512)
	chunk := make([]float32, 512)

	b.ReportAllocs()

	for b.Loop() {
		q.Push(chunk)
		q.Drain(func([]float32) {})
	}
}
