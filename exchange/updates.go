package exchange

import (
	"fmt"
	"strconv"

	"github.com/impossiblefinance/exchange-indexer/entity"
	eth "github.com/streamingfast/eth-go"
)

const (
	secondsPerDay  = 86400
	secondsPerHour = 3600
)

// UpdateImpossibleDayData upserts the exchange-wide bucket for the
// current day, refreshing the running totals from the factory.
func (s *Subgraph) UpdateImpossibleDayData() (*ImpossibleDayData, error) {
	factory, err := s.getFactory()
	if err != nil {
		return nil, err
	}

	timestamp := s.Block().Timestamp.Unix()
	dayID := timestamp / secondsPerDay

	dayData := NewImpossibleDayData(strconv.FormatInt(dayID, 10))
	if err := s.Load(dayData); err != nil {
		return nil, fmt.Errorf("loading day data: %w", err)
	}
	if !dayData.Exists() {
		dayData.Date = dayID * secondsPerDay
	}

	dayData.TotalVolumeUSD = factory.TotalVolumeUSD
	dayData.TotalVolumeNative = factory.TotalVolumeNative
	dayData.TotalLiquidityUSD = factory.TotalLiquidityUSD
	dayData.TotalLiquidityNative = factory.TotalLiquidityNative
	dayData.TotalTransactions = factory.TotalTransactions

	if err := s.Save(dayData); err != nil {
		return nil, fmt.Errorf("saving day data: %w", err)
	}

	return dayData, nil
}

// UpdatePairDayData upserts the current day bucket of a pair.
func (s *Subgraph) UpdatePairDayData(pairAddress eth.Address) (*PairDayData, error) {
	timestamp := s.Block().Timestamp.Unix()
	dayID := timestamp / secondsPerDay
	dayPairID := fmt.Sprintf("%s-%d", pairAddress.Pretty(), dayID)

	pair := NewPair(pairAddress.Pretty())
	if err := s.Load(pair); err != nil {
		return nil, fmt.Errorf("loading pair %s: %w", pairAddress.Pretty(), err)
	}

	pairDayData := NewPairDayData(dayPairID)
	if err := s.Load(pairDayData); err != nil {
		return nil, fmt.Errorf("loading pair day data %s: %w", dayPairID, err)
	}

	if !pairDayData.Exists() {
		pairDayData.Date = dayID * secondsPerDay
		pairDayData.Token0 = pair.Token0
		pairDayData.Token1 = pair.Token1
		pairDayData.PairAddress = pairAddress.Pretty()
	}

	pairDayData.TotalSupply = pair.TotalSupply
	pairDayData.Reserve0 = pair.Reserve0
	pairDayData.Reserve1 = pair.Reserve1
	pairDayData.ReserveUSD = pair.ReserveUSD
	pairDayData.DailyTxns = entity.IntAdd(pairDayData.DailyTxns, IL(1))

	if err := s.Save(pairDayData); err != nil {
		return nil, fmt.Errorf("saving pair day data %s: %w", dayPairID, err)
	}

	return pairDayData, nil
}

// UpdatePairHourData upserts the current hour bucket of a pair.
func (s *Subgraph) UpdatePairHourData(pairAddress eth.Address) (*PairHourData, error) {
	timestamp := s.Block().Timestamp.Unix()
	hourID := timestamp / secondsPerHour
	hourPairID := fmt.Sprintf("%s-%d", pairAddress.Pretty(), hourID)

	pair := NewPair(pairAddress.Pretty())
	if err := s.Load(pair); err != nil {
		return nil, fmt.Errorf("loading pair %s: %w", pairAddress.Pretty(), err)
	}

	pairHourData := NewPairHourData(hourPairID)
	if err := s.Load(pairHourData); err != nil {
		return nil, fmt.Errorf("loading pair hour data %s: %w", hourPairID, err)
	}

	if !pairHourData.Exists() {
		pairHourData.HourStartUnix = hourID * secondsPerHour
		pairHourData.Pair = pairAddress.Pretty()
	}

	pairHourData.Reserve0 = pair.Reserve0
	pairHourData.Reserve1 = pair.Reserve1
	pairHourData.ReserveUSD = pair.ReserveUSD
	pairHourData.HourlyTxns = entity.IntAdd(pairHourData.HourlyTxns, IL(1))

	if err := s.Save(pairHourData); err != nil {
		return nil, fmt.Errorf("saving pair hour data %s: %w", hourPairID, err)
	}

	return pairHourData, nil
}

// UpdateTokenDayData upserts the current day bucket of a token.
func (s *Subgraph) UpdateTokenDayData(token *Token, bundle *Bundle) (*TokenDayData, error) {
	timestamp := s.Block().Timestamp.Unix()
	dayID := timestamp / secondsPerDay
	tokenDayID := fmt.Sprintf("%s-%d", token.ID, dayID)

	tokenDayData := NewTokenDayData(tokenDayID)
	if err := s.Load(tokenDayData); err != nil {
		return nil, fmt.Errorf("loading token day data %s: %w", tokenDayID, err)
	}

	if !tokenDayData.Exists() {
		tokenDayData.Date = dayID * secondsPerDay
		tokenDayData.Token = token.ID
	}

	tokenDayData.PriceUSD = F(bf().Mul(token.DerivedNative.Float(), bundle.NativePriceUSD.Float()))
	tokenDayData.TotalLiquidityToken = token.TotalLiquidity
	tokenDayData.TotalLiquidityNative = F(bf().Mul(token.TotalLiquidity.Float(), token.DerivedNative.Float()))
	tokenDayData.TotalLiquidityUSD = F(bf().Mul(tokenDayData.TotalLiquidityNative.Float(), bundle.NativePriceUSD.Float()))
	tokenDayData.DailyTxns = entity.IntAdd(tokenDayData.DailyTxns, IL(1))

	if err := s.Save(tokenDayData); err != nil {
		return nil, fmt.Errorf("saving token day data %s: %w", tokenDayID, err)
	}

	return tokenDayData, nil
}
