package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/oif-labs/intentsolver/internal/discovery"
	"github.com/oif-labs/intentsolver/internal/types"
)

func TestIngestOne_ValidOrderReachesReadyAndEnqueues(t *testing.T) {
	order := validOrder(1, "test", time.Hour)
	factory := &fakeFactory{std: "test", parseOrder: order}
	rig := newTestRig(factory, nil, nil, nil, nil)

	sub := rig.bus.Subscribe()
	defer sub.Unsubscribe()

	rig.o.ingestOne(discovery.RawIntent{Bytes: []byte("raw"), Hint: "test", SourceTag: "src"})

	st, err := rig.state.GetState(order.OrderID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.Status != types.StatusReady {
		t.Fatalf("status = %v, want Ready", st.Status)
	}
	if st.QueuedAt == nil {
		t.Fatal("expected QueuedAt to be set")
	}
	if rig.state.QueueLen() != 1 {
		t.Fatalf("QueueLen = %d, want 1", rig.state.QueueLen())
	}

	var discoveredSeen, validatedSeen bool
	for i := 0; i < 2; i++ {
		select {
		case ev := <-sub.Events():
			switch ev.Kind {
			case types.EventIntentDiscovered:
				discoveredSeen = true
			case types.EventIntentValidated:
				validatedSeen = true
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	if !discoveredSeen || !validatedSeen {
		t.Fatalf("discoveredSeen=%v validatedSeen=%v, want both true", discoveredSeen, validatedSeen)
	}
}

func TestIngestOne_InvalidOrderIsTerminallyRejected(t *testing.T) {
	order := validOrder(2, "test", time.Hour)
	order.Inputs = nil // fails Validate(): "no inputs"
	factory := &fakeFactory{std: "test", parseOrder: order}
	rig := newTestRig(factory, nil, nil, nil, nil)

	sub := rig.bus.Subscribe()
	defer sub.Unsubscribe()

	rig.o.ingestOne(discovery.RawIntent{Bytes: []byte("raw"), Hint: "test"})

	st, err := rig.state.GetState(order.OrderID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.Status != types.StatusInvalid {
		t.Fatalf("status = %v, want Invalid", st.Status)
	}
	if st.LastError == "" {
		t.Fatal("expected LastError to be recorded")
	}
	if rig.state.QueueLen() != 0 {
		t.Fatalf("QueueLen = %d, want 0 for a rejected order", rig.state.QueueLen())
	}

	var rejectedSeen bool
	for i := 0; i < 2; i++ {
		select {
		case ev := <-sub.Events():
			if ev.Kind == types.EventIntentRejected {
				rejectedSeen = true
				if ev.RejectReason == "" {
					t.Fatal("expected a non-empty RejectReason")
				}
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	if !rejectedSeen {
		t.Fatal("expected an EventIntentRejected publication")
	}
}

func TestIngestOne_ParseFailureStoresNothingButPublishesRejection(t *testing.T) {
	rig := newTestRig(nil, nil, nil, nil, nil)

	sub := rig.bus.Subscribe()
	defer sub.Unsubscribe()

	rig.o.ingestOne(discovery.RawIntent{Bytes: []byte("garbage"), Hint: "unknown-standard", SourceTag: "src"})

	counts, err := rig.state.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	for status, n := range counts {
		if n != 0 {
			t.Fatalf("expected no stored states after a parse failure, got %d under %v", n, status)
		}
	}

	select {
	case ev := <-sub.Events():
		if ev.Kind != types.EventIntentRejected {
			t.Fatalf("event kind = %v, want EventIntentRejected", ev.Kind)
		}
		if ev.RejectReason == "" {
			t.Fatal("expected a non-empty RejectReason")
		}
		if ev.RawIntentSourceTag != "src" {
			t.Fatalf("RawIntentSourceTag = %q, want %q", ev.RawIntentSourceTag, "src")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an EventIntentRejected publication")
	}
}

func TestIngestOne_QueueFullRejectsWithOverloadReason(t *testing.T) {
	order := validOrder(9, "test", time.Hour)
	factory := &fakeFactory{std: "test", parseOrder: order}
	rig := newTestRig(factory, nil, nil, nil, nil)

	// Fill the queue to capacity so the Enqueue call inside ingestOne fails.
	for i := 0; i < 100; i++ {
		id := [32]byte{}
		id[1] = byte(i + 1)
		if err := rig.state.Enqueue(id, 0); err != nil {
			t.Fatalf("priming Enqueue: %v", err)
		}
	}

	sub := rig.bus.Subscribe()
	defer sub.Unsubscribe()

	rig.o.ingestOne(discovery.RawIntent{Bytes: []byte("raw"), Hint: "test"})

	st, err := rig.state.GetState(order.OrderID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.Status != types.StatusInvalid {
		t.Fatalf("status = %v, want Invalid (rejected for overload)", st.Status)
	}
	if st.LastError != "overload" {
		t.Fatalf("LastError = %q, want %q", st.LastError, "overload")
	}

	var rejectedSeen bool
	for i := 0; i < 2; i++ {
		select {
		case ev := <-sub.Events():
			if ev.Kind == types.EventIntentRejected {
				rejectedSeen = true
				if ev.RejectReason != "overload" {
					t.Fatalf("RejectReason = %q, want %q", ev.RejectReason, "overload")
				}
			}
		case <-time.After(time.Second):
		}
	}
	if !rejectedSeen {
		t.Fatal("expected an EventIntentRejected publication with reason overload")
	}
}

func TestIngestLoop_StopsOnContextCancellation(t *testing.T) {
	rig := newTestRig(nil, nil, nil, nil, nil)
	intents := make(chan discovery.Event)
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		rig.o.ingestLoop(ctx, intents)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ingestLoop did not return after context cancellation")
	}
}
