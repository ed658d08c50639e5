package account

import (
	"context"
	"sync"
)

// NonceSource is the minimal chain query the tracker needs: the next
// nonce the chain itself would assign (i.e. pending nonce).
type NonceSource interface {
	PendingNonceAt(ctx context.Context, chainID uint64, address string) (uint64, error)
}

// nonceState tracks one reserved-but-not-yet-confirmed nonce, keyed by the
// (order_id, phase) the reservation was made for, so a retried delivery of
// the same fill/claim reuses the same nonce instead of skipping ahead —
// the idempotence property the spec requires of the orchestrator.
type nonceState struct {
	nonce     uint64
	confirmed bool
}

// Tracker reserves and reuses nonces per (chainID, address, reservationKey)
// so that retries of the same logical operation (a fill or a claim for a
// given order) submit with the same nonce every time, until it confirms.
type Tracker struct {
	mu         sync.Mutex
	source     NonceSource
	reserved   map[string]*nonceState // reservationKey -> state
	nextByAddr map[string]uint64      // "address@chainID" -> next free nonce
}

// NewTracker builds a Tracker over source.
func NewTracker(source NonceSource) *Tracker {
	return &Tracker{
		source:     source,
		reserved:   make(map[string]*nonceState),
		nextByAddr: make(map[string]uint64),
	}
}

func addrKey(chainID uint64, address string) string {
	return address + "@" + itoa(chainID)
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Reserve returns the nonce to use for reservationKey (typically
// "<order_id>:fill" or "<order_id>:claim"). If a nonce was already
// reserved and not yet confirmed for this key, the same nonce is returned
// again — this is what makes a retried submission idempotent at the
// nonce level.
func (t *Tracker) Reserve(ctx context.Context, chainID uint64, address, reservationKey string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st, ok := t.reserved[reservationKey]; ok && !st.confirmed {
		return st.nonce, nil
	}

	ak := addrKey(chainID, address)
	next, haveCache := t.nextByAddr[ak]
	if !haveCache {
		chainNext, err := t.source.PendingNonceAt(ctx, chainID, address)
		if err != nil {
			return 0, err
		}
		next = chainNext
	}

	t.reserved[reservationKey] = &nonceState{nonce: next}
	t.nextByAddr[ak] = next + 1
	return next, nil
}

// MarkConfirmed releases the reservation so a future call with the same
// key (which should not happen in practice once terminal) does not reuse
// a spent nonce.
func (t *Tracker) MarkConfirmed(reservationKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.reserved[reservationKey]; ok {
		st.confirmed = true
	}
}
