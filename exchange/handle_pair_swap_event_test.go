package exchange

import (
	"fmt"
	"math/big"
	"testing"

	eth "github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSwapTrxHash = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa2"

func swapEvent(pair string, blockNum, logIndex uint64, trxHash string, amount0In, amount1In, amount0Out, amount1Out *big.Int) *PairSwapEvent {
	return &PairSwapEvent{
		EventHeader: testHeader(pair, blockNum, logIndex, trxHash),
		Sender:      eth.MustNewAddress(testRouterAddress),
		To:          eth.MustNewAddress(testHolderAddress),
		Amount0In:   amount0In,
		Amount1In:   amount1In,
		Amount0Out:  amount0Out,
		Amount1Out:  amount1Out,
	}
}

// pricedAnchorPair creates the USDT/WBNB pool and syncs it twice so both
// tokens carry derived prices and the bundle sits at 312 USD per native.
func pricedAnchorPair(t *testing.T, sg *Subgraph, chain *StaticChainReader) string {
	t.Helper()

	pairID := createAnchorPair(t, sg, chain)
	require.NoError(t, sg.HandleEvent(syncEvent(pairID, 2, e18(31200), e18(100))))
	require.NoError(t, sg.HandleEvent(syncEvent(pairID, 3, e18(31200), e18(100))))
	return pairID
}

func TestSwapAccumulatesTrackedVolume(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := pricedAnchorPair(t, sg, chain)

	// 312 USDT in, 1 WBNB out
	require.NoError(t, sg.HandleEvent(swapEvent(pairID, 102, 1, testSwapTrxHash, e18(312), big.NewInt(0), big.NewInt(0), e18(1))))

	pair := loadPair(t, store, pairID)
	volumeUSD, _ := pair.VolumeUSD.Float().Float64()
	assert.InEpsilon(t, 312.0, volumeUSD, 0.0001)

	volumeToken0, _ := pair.VolumeToken0.Float().Float64()
	volumeToken1, _ := pair.VolumeToken1.Float().Float64()
	assert.InEpsilon(t, 312.0, volumeToken0, 0.0001)
	assert.InEpsilon(t, 1.0, volumeToken1, 0.0001)
	assert.Equal(t, int64(1), pair.TotalTransactions.Int().Int64())

	usdt := loadToken(t, store, testUSDTAddress)
	usdtVolume, _ := usdt.TradeVolume.Float().Float64()
	assert.InEpsilon(t, 312.0, usdtVolume, 0.0001)

	factory := NewFactory(testFactoryAddress)
	require.NoError(t, store.Load(factory))
	totalVolumeUSD, _ := factory.TotalVolumeUSD.Float().Float64()
	totalVolumeNative, _ := factory.TotalVolumeNative.Float().Float64()
	assert.InEpsilon(t, 312.0, totalVolumeUSD, 0.0001)
	assert.InEpsilon(t, 1.0, totalVolumeNative, 0.0001)
}

func TestSwapRecordUsesTrackedAmount(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := pricedAnchorPair(t, sg, chain)

	require.NoError(t, sg.HandleEvent(swapEvent(pairID, 102, 1, testSwapTrxHash, e18(312), big.NewInt(0), big.NewInt(0), e18(1))))

	trx := loadTransaction(t, store, testSwapTrxHash)
	require.Len(t, trx.Swaps, 1)

	swap := NewSwap(trx.Swaps[0])
	require.NoError(t, store.Load(swap))
	require.True(t, swap.Exists())

	assert.Equal(t, testRouterAddress, swap.Sender)
	assert.Equal(t, testHolderAddress, swap.To)
	amountUSD, _ := swap.AmountUSD.Float().Float64()
	assert.InEpsilon(t, 312.0, amountUSD, 0.0001)

	user := NewUser(swap.From)
	require.NoError(t, store.Load(user))
	require.True(t, user.Exists())
	usdSwapped, _ := user.USDSwapped.Float().Float64()
	assert.InEpsilon(t, 312.0, usdSwapped, 0.0001)
}

func TestSwapFallsBackToDerivedAmount(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)

	otherToken := "0x00000000000000000000000000000000000000c2"
	chain.SetTokenMetadata(eth.MustNewAddress(testTokenAddress), &TokenMetadata{
		Name: strPtr("Test Token"), Symbol: strPtr("TST"), Decimals: uintPtr(18),
	})
	chain.SetTokenMetadata(eth.MustNewAddress(otherToken), &TokenMetadata{
		Name: strPtr("Other Token"), Symbol: strPtr("OTH"), Decimals: uintPtr(18),
	})

	ev := &FactoryPairCreatedEvent{
		EventHeader: testHeader(testFactoryAddress, 100, 1, testTrxHash),
		Token0:      eth.MustNewAddress(testTokenAddress),
		Token1:      eth.MustNewAddress(otherToken),
		Pair:        eth.MustNewAddress(testPairAddress),
		PairIndex:   1,
	}
	require.NoError(t, sg.HandleEvent(ev))

	// prices arrive out of band, neither token is whitelisted
	ApplyTestCase(t, store, []byte(`---
storeData:
  - type: bundle
    entity:
      id: "1"
      nativePriceUSD: "300"
  - type: token
    entity:
      id: "0x00000000000000000000000000000000000000c1"
      symbol: "TST"
      decimals: "18"
      derivedNative: "0.01"
  - type: token
    entity:
      id: "0x00000000000000000000000000000000000000c2"
      symbol: "OTH"
      decimals: "18"
      derivedNative: "0.02"
`))

	require.NoError(t, sg.HandleEvent(swapEvent(testPairAddress, 102, 1, testSwapTrxHash, e18(10), big.NewInt(0), big.NewInt(0), e18(5))))

	trx := loadTransaction(t, store, testSwapTrxHash)
	require.Len(t, trx.Swaps, 1)

	swap := NewSwap(trx.Swaps[0])
	require.NoError(t, store.Load(swap))

	// (10*0.01 + 5*0.02) / 2 native, at 300 USD each
	amountUSD, _ := swap.AmountUSD.Float().Float64()
	assert.InEpsilon(t, 30.0, amountUSD, 0.0001)

	factory := NewFactory(testFactoryAddress)
	require.NoError(t, store.Load(factory))
	assert.Equal(t, 0, factory.TotalVolumeUSD.Float().Sign())
	untracked, _ := factory.UntrackedVolumeUSD.Float().Float64()
	assert.InEpsilon(t, 30.0, untracked, 0.0001)
}

func TestSwapUpdatesDayBuckets(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := pricedAnchorPair(t, sg, chain)

	require.NoError(t, sg.HandleEvent(swapEvent(pairID, 102, 1, testSwapTrxHash, e18(312), big.NewInt(0), big.NewInt(0), e18(1))))

	blockTime := testHeader(pairID, 102, 1, testSwapTrxHash).Block.Timestamp
	dayID := blockTime.Unix() / secondsPerDay
	hourID := blockTime.Unix() / secondsPerHour

	dayData := NewImpossibleDayData(fmt.Sprintf("%d", dayID))
	require.NoError(t, store.Load(dayData))
	require.True(t, dayData.Exists())
	dailyUSD, _ := dayData.DailyVolumeUSD.Float().Float64()
	assert.InEpsilon(t, 312.0, dailyUSD, 0.0001)

	pairDayData := NewPairDayData(fmt.Sprintf("%s-%d", pairID, dayID))
	require.NoError(t, store.Load(pairDayData))
	require.True(t, pairDayData.Exists())
	pairDailyUSD, _ := pairDayData.DailyVolumeUSD.Float().Float64()
	assert.InEpsilon(t, 312.0, pairDailyUSD, 0.0001)

	pairHourData := NewPairHourData(fmt.Sprintf("%s-%d", pairID, hourID))
	require.NoError(t, store.Load(pairHourData))
	require.True(t, pairHourData.Exists())
	hourlyToken0, _ := pairHourData.HourlyVolumeToken0.Float().Float64()
	assert.InEpsilon(t, 312.0, hourlyToken0, 0.0001)

	tokenDayData := NewTokenDayData(fmt.Sprintf("%s-%d", testUSDTAddress, dayID))
	require.NoError(t, store.Load(tokenDayData))
	require.True(t, tokenDayData.Exists())
	tokenDailyUSD, _ := tokenDayData.DailyVolumeUSD.Float().Float64()
	assert.InEpsilon(t, 312.0, tokenDailyUSD, 0.0001)
}

func TestSwapUnknownPairFails(t *testing.T) {
	sg, _, _ := NewTestSubgraph(t)

	err := sg.HandleEvent(swapEvent(testPairAddress, 102, 1, testSwapTrxHash, e18(1), big.NewInt(0), big.NewInt(0), e18(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pair")
}
