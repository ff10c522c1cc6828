package exchange

import (
	"math/big"
	"testing"

	eth "github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRouterAddress = "0x00000000000000000000000000000000000000e1"

func TestMintFinalization(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := createTestPair(t, sg, chain)

	value := big.NewInt(5000000000000000000)
	require.NoError(t, sg.HandleEvent(transferEvent(pairID, 2, ZeroAddress, testHolderAddress, value)))

	mintEvent := &PairMintEvent{
		EventHeader: testHeader(pairID, 101, 3, testTrxHash),
		Sender:      eth.MustNewAddress(testRouterAddress),
		Amount0:     big.NewInt(1000000000000000000),
		Amount1:     big.NewInt(4000000000000000000),
	}
	require.NoError(t, sg.HandleEvent(mintEvent))

	trx := loadTransaction(t, store, testTrxHash)
	mint := NewMint(trx.LatestMint())
	require.NoError(t, store.Load(mint))
	require.True(t, mint.Exists())

	assert.Equal(t, MintStatusFinalized, mint.Status)
	require.NotNil(t, mint.Sender)
	assert.Equal(t, testRouterAddress, *mint.Sender)
	require.NotNil(t, mint.Amount0)
	assert.Equal(t, 0, mint.Amount0.Float().Cmp(big.NewFloat(1)))
	require.NotNil(t, mint.Amount1)
	assert.Equal(t, 0, mint.Amount1.Float().Cmp(big.NewFloat(4)))
	require.NotNil(t, mint.LogIndex)
	assert.Equal(t, int64(3), mint.LogIndex.Int().Int64())

	// transaction counters moved on every level
	pair := loadPair(t, store, pairID)
	assert.Equal(t, int64(1), pair.TotalTransactions.Int().Int64())

	factory := NewFactory(testFactoryAddress)
	require.NoError(t, store.Load(factory))
	assert.Equal(t, int64(1), factory.TotalTransactions.Int().Int64())

	// day buckets exist after the finalizer ran
	assert.Equal(t, 1, store.Len(&ImpossibleDayData{}))
	assert.Equal(t, 1, store.Len(&PairDayData{}))
	assert.Equal(t, 1, store.Len(&PairHourData{}))
	assert.Equal(t, 2, store.Len(&TokenDayData{}))
}

func TestMintFinalizationAllowsNextMint(t *testing.T) {
	sg, store, chain := NewTestSubgraph(t)
	pairID := createTestPair(t, sg, chain)

	value := big.NewInt(1000000000000000000)

	// first deposit, fully finalized
	require.NoError(t, sg.HandleEvent(transferEvent(pairID, 2, ZeroAddress, testHolderAddress, value)))
	require.NoError(t, sg.HandleEvent(&PairMintEvent{
		EventHeader: testHeader(pairID, 101, 3, testTrxHash),
		Sender:      eth.MustNewAddress(testRouterAddress),
		Amount0:     big.NewInt(1),
		Amount1:     big.NewInt(1),
	}))

	// second deposit in the same transaction opens a fresh mint
	require.NoError(t, sg.HandleEvent(transferEvent(pairID, 4, ZeroAddress, testHolderAddress, value)))

	trx := loadTransaction(t, store, testTrxHash)
	require.Len(t, trx.Mints, 2)

	first := NewMint(trx.Mints[0])
	require.NoError(t, store.Load(first))
	assert.Equal(t, MintStatusFinalized, first.Status)

	second := NewMint(trx.Mints[1])
	require.NoError(t, store.Load(second))
	assert.Equal(t, MintStatusPending, second.Status)
}

func TestMintEventWithoutTransactionFails(t *testing.T) {
	sg, _, chain := NewTestSubgraph(t)
	pairID := createTestPair(t, sg, chain)

	err := sg.HandleEvent(&PairMintEvent{
		EventHeader: testHeader(pairID, 101, 2, testTrxHash),
		Sender:      eth.MustNewAddress(testRouterAddress),
		Amount0:     big.NewInt(1),
		Amount1:     big.NewInt(1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without transaction")
}
