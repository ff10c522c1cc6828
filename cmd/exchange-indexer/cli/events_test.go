package cli

import (
	"strings"
	"testing"

	"github.com/impossiblefinance/exchange-indexer/exchange"
	"github.com/impossiblefinance/exchange-indexer/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *exchange.NetworkConfig {
	config := &exchange.NetworkConfig{
		Network:              "bsc-test",
		FactoryAddress:       "0x918d7e714243f7d9d463c37e106235dcde294ffc",
		WrappedNativeAddress: "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c",
		Whitelist: []string{
			"0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c",
		},
	}
	return config
}

func TestReplay(t *testing.T) {
	events := strings.Join([]string{
		`{"type":"pair_created","header":{"blockNum":100,"blockId":"aa","timestamp":1650000000,"logAddress":"0x918d7e714243f7d9d463c37e106235dcde294ffc","logIndex":1,"trxHash":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1","trxFrom":"0x00000000000000000000000000000000000000f0"},"payload":{"token0":"0x55d398326f99059ff775485246999027b3197955","token1":"0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c","pair":"0x00000000000000000000000000000000000000b1","pairIndex":1,"token0Meta":{"name":"Tether USD","symbol":"USDT","decimals":18},"token1Meta":{"name":"Wrapped BNB","symbol":"WBNB","decimals":18}}}`,
		``,
		`{"type":"sync","header":{"blockNum":101,"blockId":"ab","timestamp":1650000003,"logAddress":"0x00000000000000000000000000000000000000b1","logIndex":2,"trxHash":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa2","trxFrom":"0x00000000000000000000000000000000000000f0"},"payload":{"reserve0":"31200000000000000000000","reserve1":"100000000000000000000"}}`,
	}, "\n")

	store := storage.NewMemoryStore()
	chain := exchange.NewStaticChainReader()
	subgraph := exchange.NewSubgraph(store, chain, testConfig())

	count, err := replay(subgraph, chain, strings.NewReader(events))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	pair := exchange.NewPair("0x00000000000000000000000000000000000000b1")
	require.NoError(t, store.Load(pair))
	require.True(t, pair.Exists())

	assert.Equal(t, "USDT-WBNB", pair.Name)
	reserve0, _ := pair.Reserve0.Float().Float64()
	assert.Equal(t, 31200.0, reserve0)
}

func TestReplayBalanceDeclaration(t *testing.T) {
	events := `{"type":"balance","header":{"blockNum":0,"blockId":"","timestamp":0,"logAddress":"0x00000000000000000000000000000000000000b1","logIndex":0,"trxHash":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1","trxFrom":"0x00000000000000000000000000000000000000f0"},"payload":{"pool":"0x00000000000000000000000000000000000000b1","holder":"0x00000000000000000000000000000000000000d1","balance":"1000"}}`

	store := storage.NewMemoryStore()
	chain := exchange.NewStaticChainReader()
	subgraph := exchange.NewSubgraph(store, chain, testConfig())

	count, err := replay(subgraph, chain, strings.NewReader(events))
	require.NoError(t, err)

	// a balance declaration is not an event
	assert.Equal(t, 0, count)
}

func TestReplayRejectsUnknownType(t *testing.T) {
	events := `{"type":"nope","header":{"blockNum":1,"blockId":"aa","timestamp":0,"logAddress":"0x00000000000000000000000000000000000000b1","logIndex":0,"trxHash":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1","trxFrom":"0x00000000000000000000000000000000000000f0"},"payload":{}}`

	store := storage.NewMemoryStore()
	chain := exchange.NewStaticChainReader()
	subgraph := exchange.NewSubgraph(store, chain, testConfig())

	_, err := replay(subgraph, chain, strings.NewReader(events))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported event type")
}
