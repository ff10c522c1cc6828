package exchange

import (
	"math/big"
	"time"

	eth "github.com/streamingfast/eth-go"
)

// TransactionRef identifies the enclosing transaction of an event.
type TransactionRef struct {
	Hash eth.Hash    `json:"hash"`
	From eth.Address `json:"from"`
}

// BlockRef identifies the enclosing block of an event.
type BlockRef struct {
	ID        string    `json:"id"`
	Number    uint64    `json:"number"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHeader carries the chain coordinates common to every event. Events
// are expected in non-decreasing (block, logIndex) order per emitting
// contract.
type EventHeader struct {
	LogAddress  eth.Address    `json:"logAddress"`
	LogIndex    uint64         `json:"logIndex"`
	Block       BlockRef       `json:"block"`
	Transaction TransactionRef `json:"transaction"`
}

func (h *EventHeader) header() *EventHeader { return h }

// Event is any of the six decoded log types the engine consumes.
type Event interface {
	header() *EventHeader
}

type FactoryPairCreatedEvent struct {
	EventHeader

	Token0    eth.Address `json:"token0"`
	Token1    eth.Address `json:"token1"`
	Pair      eth.Address `json:"pair"`
	PairIndex uint64      `json:"pairIndex"`
}

type PairTransferEvent struct {
	EventHeader

	From  eth.Address `json:"from"`
	To    eth.Address `json:"to"`
	Value *big.Int    `json:"value"`
}

type PairSyncEvent struct {
	EventHeader

	Reserve0 *big.Int `json:"reserve0"`
	Reserve1 *big.Int `json:"reserve1"`
}

type PairMintEvent struct {
	EventHeader

	Sender  eth.Address `json:"sender"`
	Amount0 *big.Int    `json:"amount0"`
	Amount1 *big.Int    `json:"amount1"`
}

type PairBurnEvent struct {
	EventHeader

	Sender  eth.Address `json:"sender"`
	To      eth.Address `json:"to"`
	Amount0 *big.Int    `json:"amount0"`
	Amount1 *big.Int    `json:"amount1"`
}

type PairSwapEvent struct {
	EventHeader

	Sender     eth.Address `json:"sender"`
	To         eth.Address `json:"to"`
	Amount0In  *big.Int    `json:"amount0In"`
	Amount1In  *big.Int    `json:"amount1In"`
	Amount0Out *big.Int    `json:"amount0Out"`
	Amount1Out *big.Int    `json:"amount1Out"`
}
