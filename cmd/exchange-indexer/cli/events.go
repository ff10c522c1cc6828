package cli

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/impossiblefinance/exchange-indexer/exchange"
	eth "github.com/streamingfast/eth-go"
)

// The replay file carries one envelope per line. The header holds the
// chain coordinates every event shares, the payload is type specific.
// Amounts travel as base-10 strings, they do not fit in a JSON number.
type envelope struct {
	Type    string          `json:"type"`
	Header  envelopeHeader  `json:"header"`
	Payload json.RawMessage `json:"payload"`
}

type envelopeHeader struct {
	BlockNum   uint64 `json:"blockNum"`
	BlockID    string `json:"blockId"`
	Timestamp  int64  `json:"timestamp"`
	LogAddress string `json:"logAddress"`
	LogIndex   uint64 `json:"logIndex"`
	TrxHash    string `json:"trxHash"`
	TrxFrom    string `json:"trxFrom"`
}

type tokenMetaPayload struct {
	Name     *string `json:"name"`
	Symbol   *string `json:"symbol"`
	Decimals *uint64 `json:"decimals"`
}

type pairCreatedPayload struct {
	Token0     string            `json:"token0"`
	Token1     string            `json:"token1"`
	Pair       string            `json:"pair"`
	PairIndex  uint64            `json:"pairIndex"`
	Token0Meta *tokenMetaPayload `json:"token0Meta"`
	Token1Meta *tokenMetaPayload `json:"token1Meta"`
}

type transferPayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

type syncPayload struct {
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}

type mintPayload struct {
	Sender  string `json:"sender"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}

type burnPayload struct {
	Sender  string `json:"sender"`
	To      string `json:"to"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}

type swapPayload struct {
	Sender     string `json:"sender"`
	To         string `json:"to"`
	Amount0In  string `json:"amount0In"`
	Amount1In  string `json:"amount1In"`
	Amount0Out string `json:"amount0Out"`
	Amount1Out string `json:"amount1Out"`
}

// balancePayload is not an event: it declares a liquidity token balance
// on the static chain reader ahead of the transfer that reads it.
type balancePayload struct {
	Pool    string `json:"pool"`
	Holder  string `json:"holder"`
	Balance string `json:"balance"`
}

func (h *envelopeHeader) toEventHeader() (exchange.EventHeader, error) {
	logAddress, err := eth.NewAddress(h.LogAddress)
	if err != nil {
		return exchange.EventHeader{}, fmt.Errorf("parsing log address: %w", err)
	}

	trxHash, err := eth.NewHash(h.TrxHash)
	if err != nil {
		return exchange.EventHeader{}, fmt.Errorf("parsing transaction hash: %w", err)
	}

	trxFrom, err := eth.NewAddress(h.TrxFrom)
	if err != nil {
		return exchange.EventHeader{}, fmt.Errorf("parsing transaction sender: %w", err)
	}

	return exchange.EventHeader{
		LogAddress: logAddress,
		LogIndex:   h.LogIndex,
		Block: exchange.BlockRef{
			ID:        h.BlockID,
			Number:    h.BlockNum,
			Timestamp: time.Unix(h.Timestamp, 0).UTC(),
		},
		Transaction: exchange.TransactionRef{
			Hash: trxHash,
			From: trxFrom,
		},
	}, nil
}

// decodeEvent turns an envelope into the event the subgraph handles. A
// pair_created envelope also declares the new pool and its token
// metadata on the chain reader, so later pricing walks can resolve it.
func decodeEvent(env *envelope, chain *exchange.StaticChainReader) (exchange.Event, error) {
	header, err := env.Header.toEventHeader()
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case "pair_created":
		payload := &pairCreatedPayload{}
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return nil, fmt.Errorf("unmarshalling pair_created payload: %w", err)
		}

		token0, err := eth.NewAddress(payload.Token0)
		if err != nil {
			return nil, fmt.Errorf("parsing token0: %w", err)
		}
		token1, err := eth.NewAddress(payload.Token1)
		if err != nil {
			return nil, fmt.Errorf("parsing token1: %w", err)
		}
		pair, err := eth.NewAddress(payload.Pair)
		if err != nil {
			return nil, fmt.Errorf("parsing pair: %w", err)
		}

		chain.SetPair(pair, token0, token1)
		if payload.Token0Meta != nil {
			chain.SetTokenMetadata(token0, &exchange.TokenMetadata{
				Name:     payload.Token0Meta.Name,
				Symbol:   payload.Token0Meta.Symbol,
				Decimals: payload.Token0Meta.Decimals,
			})
		}
		if payload.Token1Meta != nil {
			chain.SetTokenMetadata(token1, &exchange.TokenMetadata{
				Name:     payload.Token1Meta.Name,
				Symbol:   payload.Token1Meta.Symbol,
				Decimals: payload.Token1Meta.Decimals,
			})
		}

		return &exchange.FactoryPairCreatedEvent{
			EventHeader: header,
			Token0:      token0,
			Token1:      token1,
			Pair:        pair,
			PairIndex:   payload.PairIndex,
		}, nil

	case "transfer":
		payload := &transferPayload{}
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return nil, fmt.Errorf("unmarshalling transfer payload: %w", err)
		}

		from, err := eth.NewAddress(payload.From)
		if err != nil {
			return nil, fmt.Errorf("parsing from: %w", err)
		}
		to, err := eth.NewAddress(payload.To)
		if err != nil {
			return nil, fmt.Errorf("parsing to: %w", err)
		}
		value, err := parseBigInt(payload.Value)
		if err != nil {
			return nil, fmt.Errorf("parsing value: %w", err)
		}

		return &exchange.PairTransferEvent{
			EventHeader: header,
			From:        from,
			To:          to,
			Value:       value,
		}, nil

	case "sync":
		payload := &syncPayload{}
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return nil, fmt.Errorf("unmarshalling sync payload: %w", err)
		}

		reserve0, err := parseBigInt(payload.Reserve0)
		if err != nil {
			return nil, fmt.Errorf("parsing reserve0: %w", err)
		}
		reserve1, err := parseBigInt(payload.Reserve1)
		if err != nil {
			return nil, fmt.Errorf("parsing reserve1: %w", err)
		}

		return &exchange.PairSyncEvent{
			EventHeader: header,
			Reserve0:    reserve0,
			Reserve1:    reserve1,
		}, nil

	case "mint":
		payload := &mintPayload{}
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return nil, fmt.Errorf("unmarshalling mint payload: %w", err)
		}

		sender, err := eth.NewAddress(payload.Sender)
		if err != nil {
			return nil, fmt.Errorf("parsing sender: %w", err)
		}
		amount0, err := parseBigInt(payload.Amount0)
		if err != nil {
			return nil, fmt.Errorf("parsing amount0: %w", err)
		}
		amount1, err := parseBigInt(payload.Amount1)
		if err != nil {
			return nil, fmt.Errorf("parsing amount1: %w", err)
		}

		return &exchange.PairMintEvent{
			EventHeader: header,
			Sender:      sender,
			Amount0:     amount0,
			Amount1:     amount1,
		}, nil

	case "burn":
		payload := &burnPayload{}
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return nil, fmt.Errorf("unmarshalling burn payload: %w", err)
		}

		sender, err := eth.NewAddress(payload.Sender)
		if err != nil {
			return nil, fmt.Errorf("parsing sender: %w", err)
		}
		to, err := eth.NewAddress(payload.To)
		if err != nil {
			return nil, fmt.Errorf("parsing to: %w", err)
		}
		amount0, err := parseBigInt(payload.Amount0)
		if err != nil {
			return nil, fmt.Errorf("parsing amount0: %w", err)
		}
		amount1, err := parseBigInt(payload.Amount1)
		if err != nil {
			return nil, fmt.Errorf("parsing amount1: %w", err)
		}

		return &exchange.PairBurnEvent{
			EventHeader: header,
			Sender:      sender,
			To:          to,
			Amount0:     amount0,
			Amount1:     amount1,
		}, nil

	case "swap":
		payload := &swapPayload{}
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return nil, fmt.Errorf("unmarshalling swap payload: %w", err)
		}

		sender, err := eth.NewAddress(payload.Sender)
		if err != nil {
			return nil, fmt.Errorf("parsing sender: %w", err)
		}
		to, err := eth.NewAddress(payload.To)
		if err != nil {
			return nil, fmt.Errorf("parsing to: %w", err)
		}
		amount0In, err := parseBigInt(payload.Amount0In)
		if err != nil {
			return nil, fmt.Errorf("parsing amount0In: %w", err)
		}
		amount1In, err := parseBigInt(payload.Amount1In)
		if err != nil {
			return nil, fmt.Errorf("parsing amount1In: %w", err)
		}
		amount0Out, err := parseBigInt(payload.Amount0Out)
		if err != nil {
			return nil, fmt.Errorf("parsing amount0Out: %w", err)
		}
		amount1Out, err := parseBigInt(payload.Amount1Out)
		if err != nil {
			return nil, fmt.Errorf("parsing amount1Out: %w", err)
		}

		return &exchange.PairSwapEvent{
			EventHeader: header,
			Sender:      sender,
			To:          to,
			Amount0In:   amount0In,
			Amount1In:   amount1In,
			Amount0Out:  amount0Out,
			Amount1Out:  amount1Out,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported event type %q", env.Type)
	}
}

func declareBalance(env *envelope, chain *exchange.StaticChainReader) error {
	payload := &balancePayload{}
	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return fmt.Errorf("unmarshalling balance payload: %w", err)
	}

	pool, err := eth.NewAddress(payload.Pool)
	if err != nil {
		return fmt.Errorf("parsing pool: %w", err)
	}
	holder, err := eth.NewAddress(payload.Holder)
	if err != nil {
		return fmt.Errorf("parsing holder: %w", err)
	}
	balance, err := parseBigInt(payload.Balance)
	if err != nil {
		return fmt.Errorf("parsing balance: %w", err)
	}

	chain.SetBalance(pool, holder, balance)
	return nil
}

func parseBigInt(in string) (*big.Int, error) {
	if in == "" {
		return new(big.Int), nil
	}
	value, ok := new(big.Int).SetString(in, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", in)
	}
	return value, nil
}
