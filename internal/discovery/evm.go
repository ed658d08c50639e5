package discovery

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/storage"
)

// EthClient adapts *ethclient.Client to LogFilterer, translating
// go-ethereum's types.Log into this package's narrower Log.
type EthClient struct {
	*ethclient.Client
}

func (e EthClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]Log, error) {
	logs, err := e.Client.FilterLogs(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]Log, len(logs))
	for i, l := range logs {
		var topics [][32]byte
		for _, t := range l.Topics {
			topics = append(topics, t)
		}
		out[i] = Log{Address: l.Address, Topics: topics, Data: l.Data, BlockNumber: l.BlockNumber}
	}
	return out, nil
}

var _ LogFilterer = EthClient{}

// LogFilterer is the ethclient surface EVMLogSource needs, narrowed for
// testability.
type LogFilterer interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]Log, error)
}

// Log is the subset of go-ethereum's types.Log this source consumes.
type Log struct {
	Address     common.Address
	Topics      [][32]byte
	Data        []byte
	BlockNumber uint64
}

// EVMLogSource polls an EVM chain for logs emitted by a set of settler
// contracts matching the registry's on-chain event signatures, persisting
// its last processed block through storage so restarts resume from the
// cursor rather than the chain tip.
type EVMLogSource struct {
	name         string
	client       LogFilterer
	settlers     []common.Address
	topics       [][32]byte
	store        storage.Store
	pollInterval time.Duration
	batchSize    uint64
	blockDelay   uint64
	startBlock   *uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewEVMLogSource builds a source named name over client, filtering logs
// from settlers matching any of topics. If startBlock is nil and no
// cursor is persisted yet, the source starts from the current tip.
func NewEVMLogSource(name string, client LogFilterer, settlers []common.Address, topics [][32]byte, store storage.Store, pollInterval time.Duration, batchSize, blockDelay uint64, startBlock *uint64) *EVMLogSource {
	return &EVMLogSource{
		name:         name,
		client:       client,
		settlers:     settlers,
		topics:       topics,
		store:        store,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		blockDelay:   blockDelay,
		startBlock:   startBlock,
	}
}

func (s *EVMLogSource) Name() string { return s.name }

// Start begins polling and returns the event channel. The returned channel
// is closed when Stop is called or ctx is cancelled.
func (s *EVMLogSource) Start(ctx context.Context) (<-chan Event, error) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	out := make(chan Event, 64)
	go s.poll(runCtx, out)
	return out, nil
}

func (s *EVMLogSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *EVMLogSource) poll(ctx context.Context, out chan<- Event) {
	defer close(out)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.pollOnce(ctx, out); err != nil {
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

func (s *EVMLogSource) pollOnce(ctx context.Context, out chan<- Event) error {
	from, err := s.fromBlock(ctx)
	if err != nil {
		return err
	}

	current, err := s.client.BlockNumber(ctx)
	if err != nil {
		return solvererr.Transient(err)
	}
	if current < s.blockDelay {
		return nil
	}
	to := current - s.blockDelay
	if to < from {
		return nil
	}

	batchSize := s.batchSize
	if batchSize == 0 {
		batchSize = 1000
	}

	for batchFrom := from; batchFrom <= to; batchFrom += batchSize {
		batchTo := batchFrom + batchSize - 1
		if batchTo > to {
			batchTo = to
		}

		logs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(batchFrom),
			ToBlock:   new(big.Int).SetUint64(batchTo),
			Addresses: s.settlers,
			Topics:    topicFilter(s.topics),
		})
		if err != nil {
			return solvererr.Transient(err)
		}

		for _, l := range logs {
			select {
			case out <- Event{Kind: EventIntent, Intent: RawIntent{SourceTag: s.name, Bytes: l.Data}}:
			case <-ctx.Done():
				return nil
			}
		}

		if err := s.store.StoreCursor(s.name, batchTo); err != nil {
			return err
		}
	}
	return nil
}

func (s *EVMLogSource) fromBlock(ctx context.Context) (uint64, error) {
	height, ok, err := s.store.LoadCursor(s.name)
	if err != nil {
		return 0, err
	}
	if ok {
		return height + 1, nil
	}
	if s.startBlock != nil {
		return *s.startBlock, nil
	}
	tip, err := s.client.BlockNumber(ctx)
	if err != nil {
		return 0, solvererr.Transient(err)
	}
	return tip, nil
}

// topicFilter wraps flat topic0 candidates into go-ethereum's
// [][]common.Hash OR-filter shape (a single topic0 position, any match).
func topicFilter(topics [][32]byte) [][]common.Hash {
	if len(topics) == 0 {
		return nil
	}
	hashes := make([]common.Hash, len(topics))
	for i, t := range topics {
		hashes[i] = common.Hash(t)
	}
	return [][]common.Hash{hashes}
}
