// Package types defines the core data model shared by every solver
// component: orders, their mutable tracking state, settlement records,
// fill proofs, execution parameters and the event payloads published on
// the event bus.
package types

import (
	"time"

	"github.com/oif-labs/intentsolver/internal/solvererr"
)

// OrderStandard tags which factory produced an Order.
type OrderStandard string

const (
	StandardEIP7683         OrderStandard = "eip7683"
	StandardEIP7683Gasless  OrderStandard = "eip7683-gasless"
)

// Address is a chain-agnostic account identifier, stored as its canonical
// lower-case hex string (0x-prefixed, 20 bytes for EVM chains).
type Address string

// ChainID identifies a chain within the solver's configured universe.
type ChainID uint64

// TokenAmount is a token/amount pair used on both the input and output side
// of an order.
type TokenAmount struct {
	Token  Address
	Amount uint64
}

// Output additionally carries a recipient and destination chain.
type Output struct {
	Token     Address
	Amount    uint64
	Recipient Address
	ChainID   ChainID
}

// FillInstruction is the generic, standard-agnostic instruction the
// registry's to_fill_instructions() produces from an Order.
type FillInstruction struct {
	DestinationChain    ChainID
	DestinationContract Address
	FillData            []byte
}

// Order is an immutable, parsed, validated intent.
type Order struct {
	OrderID            [32]byte
	Standard           OrderStandard
	OriginChain        ChainID
	DestinationChains  []ChainID
	CreatedAt          time.Time
	ExpiresAt          time.Time
	User               Address
	Inputs             []TokenAmount
	Outputs            []Output
	RawPayload         []byte // opaque standard-specific payload, re-parseable
}

// Validate enforces the invariants every Order must satisfy regardless of
// standard: non-empty inputs/outputs, well-ordered timestamps.
func (o *Order) Validate() error {
	if o.CreatedAt.After(o.ExpiresAt) {
		return solvererr.Parse(errInvalidOrder("created_at after expires_at"))
	}
	if len(o.Inputs) == 0 {
		return solvererr.Parse(errInvalidOrder("no inputs"))
	}
	if len(o.Outputs) == 0 {
		return solvererr.Parse(errInvalidOrder("no outputs"))
	}
	for _, in := range o.Inputs {
		if in.Token == "" {
			return solvererr.Parse(errInvalidOrder("empty input token"))
		}
	}
	for _, out := range o.Outputs {
		if out.Token == "" || out.Recipient == "" {
			return solvererr.Parse(errInvalidOrder("malformed output"))
		}
	}
	return nil
}

type orderError string

func (e orderError) Error() string { return string(e) }
func errInvalidOrder(msg string) error { return orderError("invalid order: " + msg) }

// FillInstructionDecoder derives the generic FillInstruction set from an
// Order's standard-specific RawPayload. Each factory's ToFillInstructions
// has this shape and decodes RawPayload again on every call.
type FillInstructionDecoder func(order *Order) ([]FillInstruction, error)

// Status is the per-order state machine position. This type only names the
// positions; it does not check transitions between them.
type Status string

const (
	StatusDiscovered Status = "discovered"
	StatusValidating Status = "validating"
	StatusInvalid    Status = "invalid"
	StatusReady      Status = "ready"
	StatusFilling    Status = "filling"
	StatusFilled     Status = "filled"
	StatusSettling   Status = "settling"
	StatusSettled    Status = "settled"
	StatusAbandoned  Status = "abandoned"
)

// IsTerminal reports whether the status is one of the three terminals:
// Invalid, Settled, Abandoned.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusInvalid, StatusSettled, StatusAbandoned:
		return true
	default:
		return false
	}
}

// OrderState is the mutable tracking record owned exclusively by the state
// manager. All mutation goes through the state manager's methods; readers
// receive copies.
type OrderState struct {
	ID            [32]byte
	RawOrderData  []byte
	Status        Status
	Priority      int32
	DiscoveredAt  time.Time
	QueuedAt      *time.Time
	ProcessedAt   *time.Time
	CompletedAt   *time.Time
	Attempts      int
	LastError     string
}

// Clone returns a deep-enough copy safe to hand to a reader.
func (s *OrderState) Clone() *OrderState {
	cp := *s
	if s.QueuedAt != nil {
		t := *s.QueuedAt
		cp.QueuedAt = &t
	}
	if s.ProcessedAt != nil {
		t := *s.ProcessedAt
		cp.ProcessedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	cp.RawOrderData = append([]byte(nil), s.RawOrderData...)
	return &cp
}

// SettlementStatus is the state of a per-order settlement tracker entry.
type SettlementStatus string

const (
	SettlementAwaitingAttestation SettlementStatus = "awaiting_attestation"
	SettlementReadyToClaim        SettlementStatus = "ready_to_claim"
	SettlementClaiming            SettlementStatus = "claiming"
	SettlementCompleted           SettlementStatus = "completed"
	SettlementFailed              SettlementStatus = "failed"
)

// SettlementRecord tracks an order from Filled through to Settled/Abandoned.
// It exists iff the order reached Filled at least once, and is keyed by the
// same order_id as the OrderState it is coupled to.
type SettlementRecord struct {
	OrderID         [32]byte
	OriginChain     ChainID
	DestinationChain ChainID
	FillTx          string
	FillTimestamp   time.Time
	Status          SettlementStatus
	Attempts        int
	ProofData       []byte // set once ReadyToClaim
	ClaimTx         string
	ClaimSubmittedAt *time.Time
	ClaimAmount     uint64
	FailReason      string
	Retryable       bool
}

// FillProof is produced by the settlement strategy when attestation of a
// fill is observed.
type FillProof struct {
	FillTx           string
	FillBlock        uint64
	AttestationBytes []byte
}

// ExecutionParams is returned by a strategy's Execute decision and consumed
// by the order's generate_fill_transaction.
type ExecutionParams struct {
	GasPrice    uint64
	PriorityFee uint64
}

// StrategyContext is the read-only snapshot strategies evaluate against.
type StrategyContext struct {
	GasPrice       uint64
	Timestamp      time.Time
	SolverBalances map[Address]uint64
}

// Transaction is the generic, signable unit the order registry's
// generate_fill_transaction/generate_claim_transaction produce and Delivery
// submits.
type Transaction struct {
	ChainID  ChainID
	To       Address
	Data     []byte
	Value    uint64
	GasLimit uint64
	GasPrice uint64
	Nonce    uint64
}

// Signature is an opaque, chain-specific signature over a Transaction hash.
type Signature struct {
	Bytes []byte
}

// Receipt is what Delivery reports back after confirmation.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	BlockHash   string
	Status      bool // true = success, false = reverted
	GasUsed     uint64
}

// Urgency buckets an order by time-to-expiry for priority scoring.
type Urgency int

const (
	UrgencyHigh Urgency = iota
	UrgencyNormal
	UrgencyLow
)

// ClassifyUrgency buckets remaining time-to-expiry per the thresholds in
// the priority computation: High <= 60s < Normal <= 300s < Low.
func ClassifyUrgency(remaining time.Duration) Urgency {
	switch {
	case remaining <= 60*time.Second:
		return UrgencyHigh
	case remaining <= 300*time.Second:
		return UrgencyNormal
	default:
		return UrgencyLow
	}
}
