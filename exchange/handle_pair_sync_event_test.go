package exchange

import (
	"math/big"
	"testing"

	eth "github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func e18(value int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(value), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// createAnchorPair runs the creation flow for the USDT/WBNB anchor pool
// and declares it on the chain reader so both tokens can price through
// it.
func createAnchorPair(t *testing.T, sg *Subgraph, chain *StaticChainReader) string {
	t.Helper()

	chain.SetTokenMetadata(eth.MustNewAddress(testUSDTAddress), &TokenMetadata{
		Name:     strPtr("Tether USD"),
		Symbol:   strPtr("USDT"),
		Decimals: uintPtr(18),
	})
	chain.SetTokenMetadata(eth.MustNewAddress(testNativeAddress), &TokenMetadata{
		Name:     strPtr("Wrapped BNB"),
		Symbol:   strPtr("WBNB"),
		Decimals: uintPtr(18),
	})
	chain.SetPair(
		eth.MustNewAddress(testUSDTPairAddress),
		eth.MustNewAddress(testUSDTAddress),
		eth.MustNewAddress(testNativeAddress),
	)

	ev := &FactoryPairCreatedEvent{
		EventHeader: testHeader(testFactoryAddress, 100, 1, testTrxHash),
		Token0:      eth.MustNewAddress(testUSDTAddress),
		Token1:      eth.MustNewAddress(testNativeAddress),
		Pair:        eth.MustNewAddress(testUSDTPairAddress),
		PairIndex:   1,
	}
	require.NoError(t, sg.HandleEvent(ev))

	return testUSDTPairAddress
}

func TestPairCreatedStampsBlockAndTimestamp(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := createAnchorPair(t, sg, chain)

	pair := NewPair(pairID)
	require.NoError(t, store.Load(pair))
	require.True(t, pair.Exists())

	assert.Equal(t, int64(100), pair.Block.Int().Int64())
	assert.Equal(t, testHeader(pairID, 100, 1, testTrxHash).Block.Timestamp.Unix(), pair.Timestamp.Int().Int64())
}

func syncEvent(pair string, logIndex uint64, reserve0, reserve1 *big.Int) *PairSyncEvent {
	return &PairSyncEvent{
		EventHeader: testHeader(pair, 101, logIndex, testTrxHash),
		Reserve0:    reserve0,
		Reserve1:    reserve1,
	}
}

func loadToken(t *testing.T, store Store, id string) *Token {
	t.Helper()
	token := NewToken(id)
	require.NoError(t, store.Load(token))
	require.True(t, token.Exists())
	return token
}

func TestSyncUpdatesReservesAndPrices(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := createAnchorPair(t, sg, chain)

	require.NoError(t, sg.HandleEvent(syncEvent(pairID, 2, e18(31200), e18(100))))

	pair := loadPair(t, store, pairID)

	r0, _ := pair.Reserve0.Float().Float64()
	r1, _ := pair.Reserve1.Float().Float64()
	assert.Equal(t, 31200.0, r0)
	assert.Equal(t, 100.0, r1)

	p0, _ := pair.Token0Price.Float().Float64()
	p1, _ := pair.Token1Price.Float().Float64()
	assert.InEpsilon(t, 312.0, p0, 0.0001)
	assert.InEpsilon(t, 1.0/312.0, p1, 0.0001)

	bundle := NewBundle("1")
	require.NoError(t, store.Load(bundle))
	nativePrice, _ := bundle.NativePriceUSD.Float().Float64()
	assert.InEpsilon(t, 312.0, nativePrice, 0.0001)
}

func TestSyncDerivesTokenPrices(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := createAnchorPair(t, sg, chain)

	// the stable leg prices through the native leg's derived value, which
	// is only on record after the first pass
	require.NoError(t, sg.HandleEvent(syncEvent(pairID, 2, e18(31200), e18(100))))
	require.NoError(t, sg.HandleEvent(syncEvent(pairID, 3, e18(31200), e18(100))))

	native := loadToken(t, store, testNativeAddress)
	nativeDerived, _ := native.DerivedNative.Float().Float64()
	assert.Equal(t, 1.0, nativeDerived)

	usdt := loadToken(t, store, testUSDTAddress)
	usdtDerived, _ := usdt.DerivedNative.Float().Float64()
	assert.InEpsilon(t, 1.0/312.0, usdtDerived, 0.0001)

	usdtUSD, _ := usdt.DerivedUSD.Float().Float64()
	assert.InEpsilon(t, 1.0, usdtUSD, 0.0001)
}

func TestSyncReplacesStaleLiquidityContribution(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := createAnchorPair(t, sg, chain)

	require.NoError(t, sg.HandleEvent(syncEvent(pairID, 2, e18(31200), e18(100))))
	require.NoError(t, sg.HandleEvent(syncEvent(pairID, 3, e18(62400), e18(200))))

	// token liquidity tracks the latest reserves, it does not accumulate
	usdt := loadToken(t, store, testUSDTAddress)
	usdtLiquidity, _ := usdt.TotalLiquidity.Float().Float64()
	assert.Equal(t, 62400.0, usdtLiquidity)

	native := loadToken(t, store, testNativeAddress)
	nativeLiquidity, _ := native.TotalLiquidity.Float().Float64()
	assert.Equal(t, 200.0, nativeLiquidity)

	pair := loadPair(t, store, pairID)
	factory := NewFactory(testFactoryAddress)
	require.NoError(t, store.Load(factory))

	factoryLiquidity, _ := factory.TotalLiquidityNative.Float().Float64()
	trackedReserve, _ := pair.TrackedReserveNative.Float().Float64()
	assert.InEpsilon(t, trackedReserve, factoryLiquidity, 0.0001)
}

func TestSyncZeroReservesZeroPrices(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := createAnchorPair(t, sg, chain)

	require.NoError(t, sg.HandleEvent(syncEvent(pairID, 2, e18(31200), e18(100))))
	require.NoError(t, sg.HandleEvent(syncEvent(pairID, 3, big.NewInt(0), big.NewInt(0))))

	pair := loadPair(t, store, pairID)
	assert.Equal(t, 0, pair.Token0Price.Float().Sign())
	assert.Equal(t, 0, pair.Token1Price.Float().Sign())

	bundle := NewBundle("1")
	require.NoError(t, store.Load(bundle))
	assert.Equal(t, 0, bundle.NativePriceUSD.Float().Sign())
}

func TestSyncUnknownPairFails(t *testing.T) {
	sg, _, _ := NewTestSubgraph(t)

	err := sg.HandleEvent(syncEvent(testPairAddress, 2, e18(1), e18(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pair")
}
