package exchange

import (
	"fmt"

	"github.com/impossiblefinance/exchange-indexer/entity"
	eth "github.com/streamingfast/eth-go"
)

// HandlePairMintEvent finalizes the pending mint opened by the matching
// liquidity token transfer, filling in the deposited amounts and their
// USD value.
func (s *Subgraph) HandlePairMintEvent(ev *PairMintEvent) error {
	trx := NewTransaction(ev.Transaction.Hash.Pretty())
	if err := s.Load(trx); err != nil {
		return fmt.Errorf("loading transaction %s: %w", ev.Transaction.Hash.Pretty(), err)
	}
	if !trx.Exists() {
		return fmt.Errorf("mint event without transaction %s", ev.Transaction.Hash.Pretty())
	}

	mintID := trx.LatestMint()
	if mintID == "" {
		return fmt.Errorf("mint event without pending mint in transaction %s", trx.ID)
	}

	mint := NewMint(mintID)
	if err := s.Load(mint); err != nil {
		return fmt.Errorf("loading mint %s: %w", mintID, err)
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
	mint.Sender = &sender
	mint.Amount0 = F(token0Amount).Ptr()
	mint.Amount1 = F(token1Amount).Ptr()
	mint.LogIndex = IL(int64(ev.LogIndex)).Ptr()
	mint.AmountUSD = F(amountTotalUSD).Ptr()
	mint.Status = MintStatusFinalized
	if err := s.Save(mint); err != nil {
		return fmt.Errorf("saving mint %s: %w", mint.ID, err)
	}

	to, err := eth.NewAddress(mint.To)
	if err != nil {
		return fmt.Errorf("parsing mint recipient %s: %w", mint.To, err)
	}
	if err := s.updateLiquidityPosition(pair, to); err != nil {
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
