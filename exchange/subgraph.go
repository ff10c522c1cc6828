package exchange

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/impossiblefinance/exchange-indexer/entity"
	eth "github.com/streamingfast/eth-go"
	"go.uber.org/zap"
)

const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Aliases for numerical functions
var (
	F  = entity.NewFloat
	FL = entity.NewFloatFromLiteral
	I  = entity.NewInt
	IL = entity.NewIntFromLiteral
	bf = func() *big.Float { return new(big.Float) }
)

// ErrEventOutOfOrder is returned when an event regresses behind the last
// position seen for its emitting contract.
var ErrEventOutOfOrder = errors.New("event out of order")

// Store persists entities between events. Loading an unknown ID is not an
// error: the entity comes back with Exists() == false.
type Store interface {
	Load(e entity.Interface) error
	Save(e entity.Interface) error
	Remove(e entity.Interface) error
}

// TokenMetadata is what the chain knows about an ERC-20 token. Any field
// can be missing on non-conforming contracts.
type TokenMetadata struct {
	Name     *string
	Symbol   *string
	Decimals *uint64
}

// ChainReader answers the few contract reads the handlers need.
type ChainReader interface {
	// PairForTokens resolves the pool trading tokenA against tokenB on the
	// configured factory. A nil address means no such pool exists.
	PairForTokens(tokenA, tokenB eth.Address) (eth.Address, error)

	// TokenMetadata reads name, symbol and decimals from the token contract.
	TokenMetadata(token eth.Address) (*TokenMetadata, error)

	// PoolTokenBalanceOf reads holder's liquidity token balance on pool.
	PoolTokenBalanceOf(pool, holder eth.Address) (*big.Int, error)
}

type eventPos struct {
	block    uint64
	logIndex uint64
}

// Subgraph reconciles decoded pool events into the pair ledger. One
// instance handles one network, single threaded, events in chain order.
type Subgraph struct {
	store Store
	chain ChainReader
	net   *NetworkConfig

	Log *zap.Logger

	block    BlockRef
	lastSeen map[string]eventPos
}

func NewSubgraph(store Store, chain ChainReader, net *NetworkConfig) *Subgraph {
	return &Subgraph{
		store:    store,
		chain:    chain,
		net:      net,
		Log:      zlog,
		lastSeen: map[string]eventPos{},
	}
}

// Network exposes the deployment configuration, mostly for the CLI.
func (s *Subgraph) Network() *NetworkConfig { return s.net }

// Block is the block of the event currently being handled.
func (s *Subgraph) Block() BlockRef { return s.block }

func (s *Subgraph) Load(e entity.Interface) error   { return s.store.Load(e) }
func (s *Subgraph) Save(e entity.Interface) error   { return s.store.Save(e) }
func (s *Subgraph) Remove(e entity.Interface) error { return s.store.Remove(e) }

// HandleEvent routes one decoded event to its handler. Events from the
// same contract must arrive in non-decreasing (block, logIndex) order;
// regressions are rejected with ErrEventOutOfOrder before any state is
// touched.
func (s *Subgraph) HandleEvent(ev Event) error {
	header := ev.header()
	if err := s.checkOrdering(header); err != nil {
		return err
	}
	s.block = header.Block

	switch event := ev.(type) {
	case *FactoryPairCreatedEvent:
		return s.HandleFactoryPairCreatedEvent(event)
	case *PairTransferEvent:
		return s.HandlePairTransferEvent(event)
	case *PairSyncEvent:
		return s.HandlePairSyncEvent(event)
	case *PairMintEvent:
		return s.HandlePairMintEvent(event)
	case *PairBurnEvent:
		return s.HandlePairBurnEvent(event)
	case *PairSwapEvent:
		return s.HandlePairSwapEvent(event)
	default:
		return fmt.Errorf("unsupported event type %T", ev)
	}
}

func (s *Subgraph) checkOrdering(header *EventHeader) error {
	addr := header.LogAddress.Pretty()
	pos := eventPos{block: header.Block.Number, logIndex: header.LogIndex}

	if last, ok := s.lastSeen[addr]; ok {
		if pos.block < last.block || (pos.block == last.block && pos.logIndex < last.logIndex) {
			s.Log.Warn("rejecting out of order event",
				zap.String("log_address", addr),
				zap.Uint64("block_num", pos.block),
				zap.Uint64("log_index", pos.logIndex),
				zap.Uint64("last_block_num", last.block),
				zap.Uint64("last_log_index", last.logIndex),
			)
			return fmt.Errorf("%w: contract %s saw block %d log %d after block %d log %d",
				ErrEventOutOfOrder, addr, pos.block, pos.logIndex, last.block, last.logIndex)
		}
	}

	s.lastSeen[addr] = pos
	return nil
}
