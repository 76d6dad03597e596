package readqueue

import (
	"strings"
	"testing"
	"time"
)

func TestSequentialEnqueueReleaseInOrder(t *testing.T) {
	q := New(strings.NewReader("source"))

	slot1 := q.Enqueue()
	buf := make([]byte, 3)
	n, err := slot1.Read(buf)
	if err != nil || n != 3 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	slot1.Release()

	slot2 := q.Enqueue()
	n, err = slot2.Read(buf)
	if err != nil || n != 3 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	slot2.Release()
}

func TestEnqueueBlocksUntilPriorRelease(t *testing.T) {
	q := New(strings.NewReader("abcdef"))

	slot1 := q.Enqueue()
	slot2 := q.Enqueue()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 3)
		slot2.Read(buf)
	}()

	select {
	case <-done:
		t.Fatal("second slot's Read returned before the first slot released")
	case <-time.After(30 * time.Millisecond):
	}

	slot1.Release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second slot never unblocked after first slot released")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	q := New(strings.NewReader("xyz"))
	slot := q.Enqueue()
	slot.Release()
	slot.Release() // must not panic or double-send
}
