package exchange

import (
	"fmt"
	"math/big"

	"github.com/impossiblefinance/exchange-indexer/entity"
	"go.uber.org/zap"
)

// HandlePairTransferEvent reconciles a liquidity token transfer into the
// mint/burn records of its transaction. A transfer from the zero address
// opens (or reuses) a pending mint, a transfer into the pool opens a burn
// awaiting its Burn log, and a transfer from the pool to the zero address
// settles the burn, absorbing a dangling fee mint when one is present.
func (s *Subgraph) HandlePairTransferEvent(ev *PairTransferEvent) error {
	s.Log.Debug("handling transfer event",
		zap.Uint64("block_num", s.Block().Number),
		zap.Stringer("trx_hash", ev.Transaction.Hash),
		zap.Stringer("from", ev.From),
		zap.Stringer("to", ev.To),
	)

	pair := NewPair(ev.LogAddress.Pretty())
	if err := s.Load(pair); err != nil {
		return fmt.Errorf("loading pair %s: %w", ev.LogAddress.Pretty(), err)
	}
	if !pair.Exists() {
		return fmt.Errorf("transfer event for unknown pair %s", ev.LogAddress.Pretty())
	}

	from := ev.From.Pretty()
	to := ev.To.Pretty()

	// liquidity token amount being transferred
	value := entity.ConvertTokenToDecimal(ev.Value, 18)

	trx, err := s.getOrCreateTransaction(ev.Transaction.Hash.Pretty())
	if err != nil {
		return err
	}

	// mint
	if from == ZeroAddress {
		pair.TotalSupply = F(bf().Add(pair.TotalSupply.Float(), value))
		if err := s.Save(pair); err != nil {
			return fmt.Errorf("saving pair %s: %w", pair.ID, err)
		}

		finalized, err := s.isMintFinalized(trx.LatestMint())
		if err != nil {
			return err
		}

		if trx.LatestMint() == "" || finalized { // open a new mint unless the last one still awaits its Mint log
			mint := NewMint(fmt.Sprintf("%s-%d", trx.ID, len(trx.Mints)))
			mint.Transaction = trx.ID
			mint.Pair = pair.ID
			mint.Token0 = pair.Token0
			mint.Token1 = pair.Token1
			mint.To = to
			mint.Liquidity = F(value)
			mint.Timestamp = I(trx.Timestamp.Int())
			if err := s.Save(mint); err != nil {
				return fmt.Errorf("saving new mint: %w", err)
			}

			trx.Mints = append(trx.Mints, mint.ID)
			if err := s.Save(trx); err != nil {
				return fmt.Errorf("saving transaction: %w", err)
			}
		}
	}

	// direct send to the pool, first step of a withdrawal
	if to == pair.ID {
		burn := NewBurn(fmt.Sprintf("%s-%d", trx.ID, len(trx.Burns)))
		burn.Transaction = trx.ID
		burn.Pair = pair.ID
		burn.Token0 = pair.Token0
		burn.Token1 = pair.Token1
		burn.Liquidity = F(value)
		burn.Timestamp = I(trx.Timestamp.Int())
		burn.To = &to
		burn.Sender = &from
		burn.NeedsComplete = true
		if err := s.Save(burn); err != nil {
			return fmt.Errorf("saving burn: %w", err)
		}

		trx.Burns = append(trx.Burns, burn.ID)
		if err := s.Save(trx); err != nil {
			return fmt.Errorf("saving transaction: %w", err)
		}
	}

	// the pool burning its own tokens settles the withdrawal
	if to == ZeroAddress && from == pair.ID {
		pair.TotalSupply = F(bf().Sub(pair.TotalSupply.Float(), value))
		if err := s.Save(pair); err != nil {
			return fmt.Errorf("saving pair %s: %w", pair.ID, err)
		}

		var burn *Burn
		if lastBurnID := trx.LatestBurn(); lastBurnID != "" {
			currentBurn := NewBurn(lastBurnID)
			if err := s.Load(currentBurn); err != nil {
				return fmt.Errorf("loading burn %s: %w", lastBurnID, err)
			}

			if currentBurn.NeedsComplete {
				burn = currentBurn
			} else {
				burn = s.newBurnForTransfer(trx, pair, value)
			}
		} else {
			burn = s.newBurnForTransfer(trx, pair, value)
		}

		finalized, err := s.isMintFinalized(trx.LatestMint())
		if err != nil {
			return err
		}

		// a pending mint alongside a burn is the protocol fee mint: fold it
		// into the burn and drop the mint record
		if trx.LatestMint() != "" && !finalized {
			mint := NewMint(trx.LatestMint())
			if err := s.Load(mint); err != nil {
				return fmt.Errorf("loading mint %s: %w", trx.LatestMint(), err)
			}

			burn.FeeTo = &mint.To
			burn.FeeLiquidity = mint.Liquidity.Ptr()

			if err := s.Remove(mint); err != nil {
				return fmt.Errorf("removing absorbed mint %s: %w", mint.ID, err)
			}

			trx.DropLatestMint()
			if err := s.Save(trx); err != nil {
				return fmt.Errorf("saving transaction: %w", err)
			}
		}

		if err := s.Save(burn); err != nil {
			return fmt.Errorf("saving burn: %w", err)
		}

		if burn.NeedsComplete {
			trx.ReplaceLatestBurn(burn.ID)
		} else {
			trx.Burns = append(trx.Burns, burn.ID)
		}

		if err := s.Save(trx); err != nil {
			return fmt.Errorf("saving transaction: %w", err)
		}
	}

	// track liquidity positions of the ordinary holders on both legs
	if from != ZeroAddress && from != pair.ID {
		if err := s.updateLiquidityPosition(pair, ev.From); err != nil {
			return err
		}
	}

	if to != ZeroAddress && to != pair.ID {
		if err := s.updateLiquidityPosition(pair, ev.To); err != nil {
			return err
		}
	}

	if err := s.Save(trx); err != nil {
		return fmt.Errorf("saving transaction: %w", err)
	}

	return nil
}

func (s *Subgraph) newBurnForTransfer(trx *Transaction, pair *Pair, value *big.Float) *Burn {
	burn := NewBurn(fmt.Sprintf("%s-%d", trx.ID, len(trx.Burns)))
	burn.Transaction = trx.ID
	burn.NeedsComplete = false
	burn.Pair = pair.ID
	burn.Token0 = pair.Token0
	burn.Token1 = pair.Token1
	burn.Liquidity = F(value)
	burn.Timestamp = I(trx.Timestamp.Int())
	return burn
}

// isMintFinalized reports whether the mint has seen its Mint log. An empty
// mintID reports false.
func (s *Subgraph) isMintFinalized(mintID string) (bool, error) {
	if mintID == "" {
		return false, nil
	}

	mint := NewMint(mintID)
	if err := s.Load(mint); err != nil {
		return false, fmt.Errorf("loading mint %s: %w", mintID, err)
	}

	return mint.Status == MintStatusFinalized, nil
}
