package exchange

import (
	"fmt"

	"github.com/impossiblefinance/exchange-indexer/entity"
	eth "github.com/streamingfast/eth-go"
	"go.uber.org/zap"
)

// updateLiquidityPosition refreshes holder's liquidity token balance on
// pair from the chain and snapshots the position. A failed balance read is
// fatal: positions must never drift from the chain.
func (s *Subgraph) updateLiquidityPosition(pair *Pair, holder eth.Address) error {
	user, err := s.getOrCreateUser(holder.Pretty())
	if err != nil {
		return err
	}

	position, err := s.getOrCreateLiquidityPosition(pair, user)
	if err != nil {
		return err
	}

	balance, err := s.chain.PoolTokenBalanceOf(eth.MustNewAddress(pair.ID), holder)
	if err != nil {
		return fmt.Errorf("reading liquidity balance of %s on pair %s: %w", user.ID, pair.ID, err)
	}

	position.LiquidityTokenBalance = F(entity.ConvertTokenToDecimal(balance, 18))
	if err := s.Save(position); err != nil {
		return fmt.Errorf("saving liquidity position %s: %w", position.ID, err)
	}

	s.Log.Debug("updated liquidity position",
		zap.String("position", position.ID),
		zap.Stringer("balance", position.LiquidityTokenBalance.Float()),
	)

	return s.createLiquiditySnapshot(position, pair, user)
}

func (s *Subgraph) getOrCreateLiquidityPosition(pair *Pair, user *User) (*LiquidityPosition, error) {
	id := fmt.Sprintf("%s-%s", pair.ID, user.ID)

	position := NewLiquidityPosition(id)
	if err := s.Load(position); err != nil {
		return nil, fmt.Errorf("loading liquidity position %s: %w", id, err)
	}

	if !position.Exists() {
		position.User = user.ID
		position.Pair = pair.ID
		if err := s.Save(position); err != nil {
			return nil, fmt.Errorf("saving liquidity position %s: %w", id, err)
		}

		pair.LiquidityProviderCount = entity.IntAdd(pair.LiquidityProviderCount, IL(1))
		if err := s.Save(pair); err != nil {
			return nil, fmt.Errorf("saving pair %s: %w", pair.ID, err)
		}
	}

	return position, nil
}

// createLiquiditySnapshot freezes the position with the pair pricing at
// the current block.
func (s *Subgraph) createLiquiditySnapshot(position *LiquidityPosition, pair *Pair, user *User) error {
	bundle, err := s.getBundle()
	if err != nil {
		return err
	}

	token0 := NewToken(pair.Token0)
	if err := s.Load(token0); err != nil {
		return fmt.Errorf("loading token0 %s: %w", pair.Token0, err)
	}

	token1 := NewToken(pair.Token1)
	if err := s.Load(token1); err != nil {
		return fmt.Errorf("loading token1 %s: %w", pair.Token1, err)
	}

	timestamp := s.Block().Timestamp.Unix()

	snapshot := NewLiquidityPositionSnapshot(fmt.Sprintf("%s-%d", position.ID, timestamp))
	snapshot.LiquidityPosition = position.ID
	snapshot.Timestamp = IL(timestamp)
	snapshot.Block = IL(int64(s.Block().Number))
	snapshot.User = user.ID
	snapshot.Pair = pair.ID
	snapshot.Token0PriceUSD = F(bf().Mul(token0.DerivedNative.Float(), bundle.NativePriceUSD.Float()))
	snapshot.Token1PriceUSD = F(bf().Mul(token1.DerivedNative.Float(), bundle.NativePriceUSD.Float()))
	snapshot.Reserve0 = pair.Reserve0
	snapshot.Reserve1 = pair.Reserve1
	snapshot.ReserveUSD = pair.ReserveUSD
	snapshot.LiquidityTokenTotalSupply = pair.TotalSupply
	snapshot.LiquidityTokenBalance = position.LiquidityTokenBalance

	if err := s.Save(snapshot); err != nil {
		return fmt.Errorf("saving liquidity snapshot %s: %w", snapshot.ID, err)
	}

	return nil
}
