package state

import (
	"testing"

	"github.com/oif-labs/intentsolver/internal/solvererr"
)

func id(b byte) [32]byte {
	var out [32]byte
	out[31] = b
	return out
}

func TestPriorityQueue_PopOrdersByPriorityThenFIFO(t *testing.T) {
	q := NewPriorityQueue(10)

	if err := q.Push(id(1), 50); err != nil {
		t.Fatalf("push 1: %v", err)
	}
	if err := q.Push(id(2), 90); err != nil {
		t.Fatalf("push 2: %v", err)
	}
	if err := q.Push(id(3), 90); err != nil {
		t.Fatalf("push 3: %v", err)
	}
	if err := q.Push(id(4), 10); err != nil {
		t.Fatalf("push 4: %v", err)
	}

	got, ok := q.Pop()
	if !ok || got != id(2) {
		t.Fatalf("first pop: got %x, want id(2)", got)
	}
	got, ok = q.Pop()
	if !ok || got != id(3) {
		t.Fatalf("second pop (FIFO tiebreak): got %x, want id(3)", got)
	}
	got, ok = q.Pop()
	if !ok || got != id(1) {
		t.Fatalf("third pop: got %x, want id(1)", got)
	}
	got, ok = q.Pop()
	if !ok || got != id(4) {
		t.Fatalf("fourth pop: got %x, want id(4)", got)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestPriorityQueue_QueueFullAtCapacity(t *testing.T) {
	q := NewPriorityQueue(2)
	if err := q.Push(id(1), 1); err != nil {
		t.Fatalf("push 1: %v", err)
	}
	if err := q.Push(id(2), 1); err != nil {
		t.Fatalf("push 2: %v", err)
	}
	if err := q.Push(id(3), 1); err != solvererr.QueueFull {
		t.Fatalf("expected QueueFull, got %v", err)
	}
}

func TestPriorityQueue_PushExistingIDRepriorities(t *testing.T) {
	q := NewPriorityQueue(10)
	if err := q.Push(id(1), 10); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := q.Push(id(2), 20); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := q.Push(id(1), 100); err != nil {
		t.Fatalf("repriority push: %v", err)
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 items after repriority, got %d", q.Len())
	}
	got, ok := q.Pop()
	if !ok || got != id(1) {
		t.Fatalf("expected id(1) to pop first after repriority, got %x", got)
	}
}

func TestPriorityQueue_RemoveAndContains(t *testing.T) {
	q := NewPriorityQueue(10)
	_ = q.Push(id(1), 10)
	_ = q.Push(id(2), 20)

	if !q.Contains(id(1)) {
		t.Fatal("expected id(1) to be present")
	}
	q.Remove(id(1))
	if q.Contains(id(1)) {
		t.Fatal("expected id(1) to be removed")
	}
	if q.Len() != 1 {
		t.Fatalf("expected len 1 after remove, got %d", q.Len())
	}
}
