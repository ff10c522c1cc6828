package exchange

import (
	"fmt"

	"github.com/impossiblefinance/exchange-indexer/entity"
)

// HandlePairBurnEvent settles the burn opened by the preceding liquidity
// token transfers, filling in the withdrawn amounts and their USD value.
func (s *Subgraph) HandlePairBurnEvent(ev *PairBurnEvent) error {
	trx := NewTransaction(ev.Transaction.Hash.Pretty())
	if err := s.Load(trx); err != nil {
		return fmt.Errorf("loading transaction %s: %w", ev.Transaction.Hash.Pretty(), err)
	}

	// a burn log without its transfers has nothing to settle
	if !trx.Exists() {
		return nil
	}

	burnID := trx.LatestBurn()
	if burnID == "" {
		return fmt.Errorf("burn event without burn record in transaction %s", trx.ID)
	}

	burn := NewBurn(burnID)
	if err := s.Load(burn); err != nil {
		return fmt.Errorf("loading burn %s: %w", burnID, err)
	}

	pair := NewPair(ev.LogAddress.Pretty())
	if err := s.Load(pair); err != nil {
		return fmt.Errorf("loading pair %s: %w", ev.LogAddress.Pretty(), err)
	}

	factory, err := s.getFactory()
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

	token0Amount := entity.ConvertTokenToDecimal(ev.Amount0, token0.Decimals.Int().Int64())
	token1Amount := entity.ConvertTokenToDecimal(ev.Amount1, token1.Decimals.Int().Int64())

	token0.TotalTransactions = entity.IntAdd(token0.TotalTransactions, IL(1))
	token1.TotalTransactions = entity.IntAdd(token1.TotalTransactions, IL(1))

	bundle, err := s.getBundle()
	if err != nil {
		return err
	}
	amountTotalUSD := bf().Mul(
		bf().Add(
			bf().Mul(token1.DerivedNative.Float(), token1Amount),
			bf().Mul(token0.DerivedNative.Float(), token0Amount),
		),
		bundle.NativePriceUSD.Float(),
	)

	pair.TotalTransactions = entity.IntAdd(pair.TotalTransactions, IL(1))
	factory.TotalTransactions = entity.IntAdd(factory.TotalTransactions, IL(1))

	if err := s.Save(token0); err != nil {
		return fmt.Errorf("saving token0: %w", err)
	}
	if err := s.Save(token1); err != nil {
		return fmt.Errorf("saving token1: %w", err)
	}
	if err := s.Save(pair); err != nil {
		return fmt.Errorf("saving pair: %w", err)
	}
	if err := s.Save(factory); err != nil {
		return fmt.Errorf("saving factory: %w", err)
	}

	sender := ev.Sender.Pretty()
	burn.Sender = &sender
	burn.Amount0 = F(token0Amount).Ptr()
	burn.Amount1 = F(token1Amount).Ptr()
	burn.LogIndex = IL(int64(ev.LogIndex)).Ptr()
	burn.AmountUSD = F(amountTotalUSD).Ptr()
	burn.NeedsComplete = false

	if err := s.Save(burn); err != nil {
		return fmt.Errorf("saving burn %s: %w", burn.ID, err)
	}

	if err := s.updateLiquidityPosition(pair, ev.Sender); err != nil {
		return err
	}

	if _, err := s.UpdatePairDayData(ev.LogAddress); err != nil {
		return err
	}
	if _, err := s.UpdatePairHourData(ev.LogAddress); err != nil {
		return err
	}
	if _, err := s.UpdateImpossibleDayData(); err != nil {
		return err
	}
	if _, err := s.UpdateTokenDayData(token0, bundle); err != nil {
		return err
	}
	if _, err := s.UpdateTokenDayData(token1, bundle); err != nil {
		return err
	}

	return nil
}
