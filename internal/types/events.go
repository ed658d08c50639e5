package types

// EventKind tags the variant held by an Event.
type EventKind string

const (
	EventIntentDiscovered EventKind = "intent_discovered"
	EventIntentValidated  EventKind = "intent_validated"
	EventIntentRejected   EventKind = "intent_rejected"
	EventExecuting        EventKind = "executing"
	EventSkipped          EventKind = "skipped"
	EventDeferred         EventKind = "deferred"
	EventTxPending        EventKind = "tx_pending"
	EventTxConfirmed      EventKind = "tx_confirmed"
	EventTxFailed         EventKind = "tx_failed"
	EventFillDetected     EventKind = "fill_detected"
	EventProofReady       EventKind = "proof_ready"
	EventClaimReady       EventKind = "claim_ready"
	EventCompleted        EventKind = "completed"
)

// TxKind distinguishes a fill transaction from a claim transaction in
// delivery events.
type TxKind string

const (
	TxKindFill  TxKind = "fill"
	TxKindClaim TxKind = "claim"
)

// Event is the tagged union published on the event bus. Only the payload
// fields relevant to Kind are populated; the rest keep their zero value.
type Event struct {
	Kind EventKind

	// Discovery
	RawIntentSourceTag string
	IntentID           string
	Order              *Order
	OrderID            [32]byte
	RejectReason       string

	// Order / execution
	Params      *ExecutionParams
	SkipReason  string
	RetryAfterS int64

	// Delivery
	TxHash  string
	Receipt *Receipt
	TxErr   string
	TxType  TxKind

	// Settlement
	Proof *FillProof
}
