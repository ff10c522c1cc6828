package exchange

import (
	"fmt"
	"math/big"

	"github.com/impossiblefinance/exchange-indexer/entity"
)

// HandlePairSwapEvent records a swap and rolls its volume into the token,
// pair, factory and time bucket aggregates. Tracked USD volume only flows
// through whitelisted legs; the derived amount is kept separately as
// untracked volume.
func (s *Subgraph) HandlePairSwapEvent(ev *PairSwapEvent) error {
	pair := NewPair(ev.LogAddress.Pretty())
	if err := s.Load(pair); err != nil {
		return fmt.Errorf("loading pair %s: %w", ev.LogAddress.Pretty(), err)
	}
	if !pair.Exists() {
		return fmt.Errorf("swap event for unknown pair %s", ev.LogAddress.Pretty())
	}

	token0 := NewToken(pair.Token0)
	if err := s.Load(token0); err != nil {
		return fmt.Errorf("loading token0 %s: %w", pair.Token0, err)
	}

	token1 := NewToken(pair.Token1)
	if err := s.Load(token1); err != nil {
		return fmt.Errorf("loading token1 %s: %w", pair.Token1, err)
	}

	amount0In := entity.ConvertTokenToDecimal(ev.Amount0In, token0.Decimals.Int().Int64())
	amount1In := entity.ConvertTokenToDecimal(ev.Amount1In, token1.Decimals.Int().Int64())
	amount0Out := entity.ConvertTokenToDecimal(ev.Amount0Out, token0.Decimals.Int().Int64())
	amount1Out := entity.ConvertTokenToDecimal(ev.Amount1Out, token1.Decimals.Int().Int64())

	amount0Total := bf().Add(amount0Out, amount0In)
	amount1Total := bf().Add(amount1Out, amount1In)

	bundle, err := s.getBundle()
	if err != nil {
		return err
	}

	// derived value averages both legs regardless of whitelisting
	derivedAmountNative := bf().Quo(
		bf().Add(
			bf().Mul(token1.DerivedNative.Float(), amount1Total),
			bf().Mul(token0.DerivedNative.Float(), amount0Total),
		),
		big.NewFloat(2),
	)

	derivedAmountUSD := bf().Mul(derivedAmountNative, bundle.NativePriceUSD.Float())

	trackedAmountUSD := s.getTrackedVolumeUSD(bundle, amount0Total, token0, amount1Total, token1)

	var trackedAmountNative *big.Float
	if bundle.NativePriceUSD.Float().Cmp(big.NewFloat(0)) == 0 {
		trackedAmountNative = big.NewFloat(0)
	} else {
		trackedAmountNative = bf().Quo(trackedAmountUSD, bundle.NativePriceUSD.Float())
	}

	token0.TradeVolume = entity.FloatAdd(token0.TradeVolume, F(bf().Add(amount0In, amount0Out)))
	token0.TradeVolumeUSD = entity.FloatAdd(token0.TradeVolumeUSD, F(trackedAmountUSD))
	token0.UntrackedVolumeUSD = entity.FloatAdd(token0.UntrackedVolumeUSD, F(derivedAmountUSD))

	token1.TradeVolume = entity.FloatAdd(token1.TradeVolume, F(bf().Add(amount1In, amount1Out)))
	token1.TradeVolumeUSD = entity.FloatAdd(token1.TradeVolumeUSD, F(trackedAmountUSD))
	token1.UntrackedVolumeUSD = entity.FloatAdd(token1.UntrackedVolumeUSD, F(derivedAmountUSD))

	token0.TotalTransactions = entity.IntAdd(token0.TotalTransactions, IL(1))
	token1.TotalTransactions = entity.IntAdd(token1.TotalTransactions, IL(1))

	pair.VolumeUSD = entity.FloatAdd(pair.VolumeUSD, F(trackedAmountUSD))
	pair.VolumeToken0 = entity.FloatAdd(pair.VolumeToken0, F(amount0Total))
	pair.VolumeToken1 = entity.FloatAdd(pair.VolumeToken1, F(amount1Total))
	pair.UntrackedVolumeUSD = entity.FloatAdd(pair.UntrackedVolumeUSD, F(derivedAmountUSD))
	pair.TotalTransactions = entity.IntAdd(pair.TotalTransactions, IL(1))

	if err := s.Save(pair); err != nil {
		return fmt.Errorf("saving pair %s: %w", pair.ID, err)
	}

	factory, err := s.getFactory()
	if err != nil {
		return err
	}

	factory.TotalVolumeUSD = entity.FloatAdd(factory.TotalVolumeUSD, F(trackedAmountUSD))
	factory.TotalVolumeNative = entity.FloatAdd(factory.TotalVolumeNative, F(trackedAmountNative))
	factory.UntrackedVolumeUSD = entity.FloatAdd(factory.UntrackedVolumeUSD, F(derivedAmountUSD))
	factory.TotalTransactions = entity.IntAdd(factory.TotalTransactions, IL(1))

	if err := s.Save(token0); err != nil {
		return fmt.Errorf("saving token0: %w", err)
	}
	if err := s.Save(token1); err != nil {
		return fmt.Errorf("saving token1: %w", err)
	}
	if err := s.Save(factory); err != nil {
		return fmt.Errorf("saving factory: %w", err)
	}

	trx, err := s.getOrCreateTransaction(ev.Transaction.Hash.Pretty())
	if err != nil {
		return err
	}

	swap := NewSwap(fmt.Sprintf("%s-%d", trx.ID, len(trx.Swaps)))
	swap.Transaction = trx.ID
	swap.Pair = pair.ID
	swap.Token0 = pair.Token0
	swap.Token1 = pair.Token1
	swap.Timestamp = trx.Timestamp
	swap.Sender = ev.Sender.Pretty()
	swap.Amount0In = F(amount0In)
	swap.Amount1In = F(amount1In)
	swap.Amount0Out = F(amount0Out)
	swap.Amount1Out = F(amount1Out)
	swap.To = ev.To.Pretty()
	swap.From = ev.Transaction.From.Pretty()
	swap.LogIndex = IL(int64(ev.LogIndex)).Ptr()

	// use the tracked amount if we have it
	if trackedAmountUSD.Cmp(big.NewFloat(0)) == 0 {
		swap.AmountUSD = F(derivedAmountUSD)
	} else {
		swap.AmountUSD = F(trackedAmountUSD)
	}

	if err := s.Save(swap); err != nil {
		return fmt.Errorf("saving swap %s: %w", swap.ID, err)
	}

	trx.Swaps = append(trx.Swaps, swap.ID)
	if err := s.Save(trx); err != nil {
		return fmt.Errorf("saving transaction %s: %w", trx.ID, err)
	}

	// swappers get a user row; their swapped volume accumulates on it
	user, err := s.getOrCreateUser(swap.From)
	if err != nil {
		return err
	}
	user.USDSwapped = entity.FloatAdd(user.USDSwapped, swap.AmountUSD)
	if err := s.Save(user); err != nil {
		return fmt.Errorf("saving user %s: %w", user.ID, err)
	}

	pairDayData, err := s.UpdatePairDayData(ev.LogAddress)
	if err != nil {
		return err
	}

	pairHourData, err := s.UpdatePairHourData(ev.LogAddress)
	if err != nil {
		return err
	}

	dayData, err := s.UpdateImpossibleDayData()
	if err != nil {
		return err
	}

	token0DayData, err := s.UpdateTokenDayData(token0, bundle)
	if err != nil {
		return err
	}

	token1DayData, err := s.UpdateTokenDayData(token1, bundle)
	if err != nil {
		return err
	}

	dayData.DailyVolumeUSD = entity.FloatAdd(dayData.DailyVolumeUSD, F(trackedAmountUSD))
	dayData.DailyVolumeNative = entity.FloatAdd(dayData.DailyVolumeNative, F(trackedAmountNative))
	dayData.DailyVolumeUntracked = entity.FloatAdd(dayData.DailyVolumeUntracked, F(derivedAmountUSD))
	if err := s.Save(dayData); err != nil {
		return err
	}

	pairDayData.DailyVolumeToken0 = entity.FloatAdd(pairDayData.DailyVolumeToken0, F(amount0Total))
	pairDayData.DailyVolumeToken1 = entity.FloatAdd(pairDayData.DailyVolumeToken1, F(amount1Total))
	pairDayData.DailyVolumeUSD = entity.FloatAdd(pairDayData.DailyVolumeUSD, F(trackedAmountUSD))
	if err := s.Save(pairDayData); err != nil {
		return err
	}

	pairHourData.HourlyVolumeToken0 = entity.FloatAdd(pairHourData.HourlyVolumeToken0, F(amount0Total))
	pairHourData.HourlyVolumeToken1 = entity.FloatAdd(pairHourData.HourlyVolumeToken1, F(amount1Total))
	pairHourData.HourlyVolumeUSD = entity.FloatAdd(pairHourData.HourlyVolumeUSD, F(trackedAmountUSD))
	if err := s.Save(pairHourData); err != nil {
		return err
	}

	token0DayData.DailyVolumeToken = entity.FloatAdd(token0DayData.DailyVolumeToken, F(amount0Total))
	token0DayData.DailyVolumeNative = entity.FloatAdd(token0DayData.DailyVolumeNative, F(bf().Mul(amount0Total, token0.DerivedNative.Float())))
	token0DayData.DailyVolumeUSD = entity.FloatAdd(token0DayData.DailyVolumeUSD, F(bf().Mul(bf().Mul(amount0Total, token0.DerivedNative.Float()), bundle.NativePriceUSD.Float())))
	if err := s.Save(token0DayData); err != nil {
		return err
	}

	token1DayData.DailyVolumeToken = entity.FloatAdd(token1DayData.DailyVolumeToken, F(amount1Total))
	token1DayData.DailyVolumeNative = entity.FloatAdd(token1DayData.DailyVolumeNative, F(bf().Mul(amount1Total, token1.DerivedNative.Float())))
	token1DayData.DailyVolumeUSD = entity.FloatAdd(token1DayData.DailyVolumeUSD, F(bf().Mul(bf().Mul(amount1Total, token1.DerivedNative.Float()), bundle.NativePriceUSD.Float())))
	if err := s.Save(token1DayData); err != nil {
		return err
	}

	return nil
}
