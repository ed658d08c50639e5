// Package discovery owns the set of configured intent sources, merging
// their output into a single interleaved stream of RawIntent and
// restarting failed sources with bounded backoff.
package discovery

import (
	"context"
	"time"

	"github.com/oif-labs/intentsolver/internal/types"
)

// RawIntent is an unparsed order as observed by a source, tagged with
// enough context for the registry to parse it.
type RawIntent struct {
	SourceTag string
	Bytes     []byte
	Hint      types.OrderStandard // optional; empty means "try all factories"
}

// Source is the polymorphic contract every discovery source satisfies.
type Source interface {
	Name() string
	Start(ctx context.Context) (<-chan Event, error)
	Stop()
}

// EventKind tags a discovery source's output stream.
type EventKind int

const (
	EventIntent EventKind = iota
	EventError
)

// Event is one element of a source's output stream: either a RawIntent or
// a non-fatal error the source recovered from.
type Event struct {
	Kind   EventKind
	Intent RawIntent
	Err    error
}

const (
	backoffBase    = time.Second
	backoffMax     = 30 * time.Second
	backoffRetries = 3
)

// Multiplexer starts every configured source concurrently and merges their
// output into one channel, restarting a source that stops with an error
// using bounded exponential backoff.
type Multiplexer struct {
	sources []Source
}

// New builds a Multiplexer over sources.
func New(sources ...Source) *Multiplexer {
	return &Multiplexer{sources: sources}
}

// Start spawns every source and returns the merged output channel, closed
// once ctx is cancelled and every source has stopped.
func (m *Multiplexer) Start(ctx context.Context) <-chan Event {
	out := make(chan Event, len(m.sources)*8)
	done := make(chan struct{}, len(m.sources))

	for _, src := range m.sources {
		go m.runWithRestart(ctx, src, out, done)
	}

	go func() {
		for range m.sources {
			<-done
		}
		close(out)
	}()

	return out
}

// runWithRestart keeps src running until ctx is cancelled, restarting it
// with exponential backoff (base 1s, cap 30s) after each failed cycle;
// after backoffRetries consecutive failures it pauses at the cap
// indefinitely between attempts rather than giving up.
func (m *Multiplexer) runWithRestart(ctx context.Context, src Source, out chan<- Event, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	consecutiveFailures := 0
	for {
		if ctx.Err() != nil {
			return
		}
		ch, err := src.Start(ctx)
		if err != nil {
			out <- Event{Kind: EventError, Err: err}
			consecutiveFailures++
			if !sleepBackoff(ctx, consecutiveFailures) {
				return
			}
			continue
		}

		sawError := false
		for ev := range ch {
			if ev.Kind == EventError {
				sawError = true
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				src.Stop()
				return
			}
		}
		src.Stop()

		if ctx.Err() != nil {
			return
		}
		if sawError {
			consecutiveFailures++
		} else {
			consecutiveFailures = 0
		}
		if !sleepBackoff(ctx, consecutiveFailures) {
			return
		}
	}
}

// sleepBackoff sleeps for the backoff delay at attempt n (doubling from
// backoffBase, capped at backoffMax, and backoffMax outright once n is past
// backoffRetries) and reports whether the caller should continue (false
// means ctx ended).
func sleepBackoff(ctx context.Context, attempt int) bool {
	delay := backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= backoffMax {
			delay = backoffMax
			break
		}
	}
	if attempt > backoffRetries {
		delay = backoffMax
	}
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}
