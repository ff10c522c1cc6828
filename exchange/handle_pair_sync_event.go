package exchange

import (
	"fmt"
	"math/big"

	"github.com/impossiblefinance/exchange-indexer/entity"
	"go.uber.org/zap"
)

// HandlePairSyncEvent rebases the pair on its fresh reserves, re-derives
// the native and token prices, then folds the pair's new tracked
// liquidity back into the token and factory totals.
func (s *Subgraph) HandlePairSyncEvent(ev *PairSyncEvent) error {
	pair := NewPair(ev.LogAddress.Pretty())
	if err := s.Load(pair); err != nil {
		return fmt.Errorf("loading pair %s: %w", ev.LogAddress.Pretty(), err)
	}
	if !pair.Exists() {
		return fmt.Errorf("sync event for unknown pair %s", ev.LogAddress.Pretty())
	}

	token0 := NewToken(pair.Token0)
	if err := s.Load(token0); err != nil {
		return fmt.Errorf("loading token0 %s of pair %s: %w", pair.Token0, pair.ID, err)
	}

	token1 := NewToken(pair.Token1)
	if err := s.Load(token1); err != nil {
		return fmt.Errorf("loading token1 %s of pair %s: %w", pair.Token1, pair.ID, err)
	}

	factory, err := s.getFactory()
	if err != nil {
		return err
	}

	// back out this pair's stale contribution before re-adding it below
	factory.TotalLiquidityNative = entity.FloatSub(factory.TotalLiquidityNative, pair.TrackedReserveNative)

	token0.TotalLiquidity = entity.FloatSub(token0.TotalLiquidity, pair.Reserve0)
	token1.TotalLiquidity = entity.FloatSub(token1.TotalLiquidity, pair.Reserve1)

	pair.Reserve0 = F(entity.ConvertTokenToDecimal(ev.Reserve0, token0.Decimals.Int().Int64()))
	pair.Reserve1 = F(entity.ConvertTokenToDecimal(ev.Reserve1, token1.Decimals.Int().Int64()))

	if pair.Reserve1.Float().Cmp(bf()) != 0 {
		pair.Token0Price = F(bf().Quo(pair.Reserve0.Float(), pair.Reserve1.Float()))
	} else {
		pair.Token0Price = FL(0)
	}

	if pair.Reserve0.Float().Cmp(bf()) != 0 {
		pair.Token1Price = F(bf().Quo(pair.Reserve1.Float(), pair.Reserve0.Float()))
	} else {
		pair.Token1Price = FL(0)
	}

	if err := s.Save(pair); err != nil {
		return fmt.Errorf("saving pair %s: %w", pair.ID, err)
	}

	// the native price must see the reserves saved just above
	nativePrice, err := s.GetNativePriceInUSD()
	if err != nil {
		return err
	}

	bundle, err := s.getBundle()
	if err != nil {
		return err
	}

	bundle.NativePriceUSD = F(nativePrice)
	if err := s.Save(bundle); err != nil {
		return fmt.Errorf("saving bundle: %w", err)
	}

	t0DerivedNative, err := s.FindNativePerToken(token0.ID)
	if err != nil {
		return err
	}

	token0.DerivedNative = F(t0DerivedNative).Ptr()
	token0.DerivedUSD = F(bf().Mul(t0DerivedNative, nativePrice)).Ptr()
	if err := s.Save(token0); err != nil {
		return fmt.Errorf("saving token0 %s: %w", token0.ID, err)
	}

	t1DerivedNative, err := s.FindNativePerToken(token1.ID)
	if err != nil {
		return err
	}

	token1.DerivedNative = F(t1DerivedNative).Ptr()
	token1.DerivedUSD = F(bf().Mul(t1DerivedNative, nativePrice)).Ptr()
	if err := s.Save(token1); err != nil {
		return fmt.Errorf("saving token1 %s: %w", token1.ID, err)
	}

	s.Log.Debug("new token prices",
		zap.Stringer("token0_derived_native", token0.DerivedNative.Float()),
		zap.Stringer("token1_derived_native", token1.DerivedNative.Float()),
		zap.Stringer("native_price_usd", nativePrice),
	)

	// tracked liquidity is zero when neither side is whitelisted
	trackedLiquidityNative := big.NewFloat(0)
	if nativePrice.Cmp(bf()) != 0 {
		trackedLiquidityNative = bf().Quo(
			s.getTrackedLiquidityUSD(bundle, pair.Reserve0.Float(), token0, pair.Reserve1.Float(), token1),
			nativePrice,
		)
	}

	// use derived amounts within the pair
	pair.TrackedReserveNative = F(trackedLiquidityNative)

	pair.ReserveNative = F(bf().Add(
		bf().Mul(pair.Reserve0.Float(), t0DerivedNative),
		bf().Mul(pair.Reserve1.Float(), t1DerivedNative),
	))

	pair.ReserveUSD = F(bf().Mul(pair.ReserveNative.Float(), nativePrice))

	// use tracked amounts globally
	factory.TotalLiquidityNative = entity.FloatAdd(factory.TotalLiquidityNative, F(trackedLiquidityNative))
	factory.TotalLiquidityUSD = F(bf().Mul(factory.TotalLiquidityNative.Float(), nativePrice))

	token0.TotalLiquidity = entity.FloatAdd(token0.TotalLiquidity, pair.Reserve0)
	token1.TotalLiquidity = entity.FloatAdd(token1.TotalLiquidity, pair.Reserve1)

	if err := s.Save(pair); err != nil {
		return fmt.Errorf("saving pair %s: %w", pair.ID, err)
	}

	if err := s.Save(factory); err != nil {
		return fmt.Errorf("saving factory: %w", err)
	}

	if err := s.Save(token0); err != nil {
		return fmt.Errorf("saving token0 %s: %w", token0.ID, err)
	}

	if err := s.Save(token1); err != nil {
		return fmt.Errorf("saving token1 %s: %w", token1.ID, err)
	}

	return nil
}
