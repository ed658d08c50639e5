package discovery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

// PollingHTTPSource fetches a JSON array of base64-encoded intent payloads
// from a configured URL on a ticker, for order formats relayed off-chain
// (e.g. EIP-7683 gasless orders signed off-chain).
type PollingHTTPSource struct {
	name         string
	url          string
	hint         types.OrderStandard
	httpClient   *http.Client
	pollInterval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPollingHTTPSource builds a source named name polling url every
// pollInterval; hint, if non-empty, is attached to every emitted
// RawIntent as a parse preference.
func NewPollingHTTPSource(name, url string, hint types.OrderStandard, pollInterval time.Duration) *PollingHTTPSource {
	return &PollingHTTPSource{
		name:         name,
		url:          url,
		hint:         hint,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		pollInterval: pollInterval,
	}
}

func (s *PollingHTTPSource) Name() string { return s.name }

func (s *PollingHTTPSource) Start(ctx context.Context) (<-chan Event, error) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	out := make(chan Event, 64)
	go s.poll(runCtx, out)
	return out, nil
}

func (s *PollingHTTPSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *PollingHTTPSource) poll(ctx context.Context, out chan<- Event) {
	defer close(out)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.fetchOnce(ctx, out); err != nil {
			select {
			case out <- Event{Kind: EventError, Err: err}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (s *PollingHTTPSource) fetchOnce(ctx context.Context, out chan<- Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return solvererr.Configuration(err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return solvererr.Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return solvererr.Transient(fmt.Errorf("polling source %s: status %d", s.name, resp.StatusCode))
	}

	var payloads []string
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return solvererr.Parse(fmt.Errorf("polling source %s: decode: %w", s.name, err))
	}

	for _, p := range payloads {
		raw, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			select {
			case out <- Event{Kind: EventError, Err: solvererr.Parse(fmt.Errorf("polling source %s: bad base64: %w", s.name, err))}:
			case <-ctx.Done():
				return nil
			}
			continue
		}
		select {
		case out <- Event{Kind: EventIntent, Intent: RawIntent{SourceTag: s.name, Bytes: raw, Hint: s.hint}}:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}
