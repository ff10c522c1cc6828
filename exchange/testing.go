package exchange

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ghodss/yaml"
	"github.com/impossiblefinance/exchange-indexer/entity"
	"github.com/impossiblefinance/exchange-indexer/storage"
	eth "github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
)

const (
	testFactoryAddress = "0x918d7e714243f7d9d463c37e106235dcde294ffc"
	testNativeAddress  = "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
	testUSDTAddress    = "0x55d398326f99059ff775485246999027b3197955"
	testUSDCAddress    = "0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d"
	testDAIAddress     = "0x1af3f329e8be154074d8769d1ffa4ee058b1dbc3"

	testUSDTPairAddress = "0x00000000000000000000000000000000000000a1"
	testUSDCPairAddress = "0x00000000000000000000000000000000000000a2"
	testDAIPairAddress  = "0x00000000000000000000000000000000000000a3"
)

func testNetworkConfig() *NetworkConfig {
	return &NetworkConfig{
		Network:              "bsc-test",
		FactoryAddress:       testFactoryAddress,
		WrappedNativeAddress: testNativeAddress,
		USDTPairAddress:      testUSDTPairAddress,
		USDCPairAddress:      testUSDCPairAddress,
		DAIPairAddress:       testDAIPairAddress,
		Whitelist: []string{
			testNativeAddress,
			testUSDTAddress,
			testUSDCAddress,
			testDAIAddress,
		},
	}
}

// NewTestSubgraph wires a subgraph over a fresh in-memory store and a
// static chain reader.
func NewTestSubgraph(t *testing.T) (*Subgraph, *storage.MemoryStore, *StaticChainReader) {
	t.Helper()

	store := storage.NewMemoryStore()
	chain := NewStaticChainReader()
	return NewSubgraph(store, chain, testNetworkConfig()), store, chain
}

// TestCase seeds the store from a yaml fixture of typed entities.
type TestCase struct {
	StoreData []StoreEntry `json:"storeData"`
}

type StoreEntry struct {
	Type   string          `json:"type"`
	Entity json.RawMessage `json:"entity"`
}

func ApplyTestCase(t *testing.T, store Store, fixture []byte) {
	t.Helper()

	testCase := &TestCase{}
	require.NoError(t, yaml.Unmarshal(fixture, testCase))

	for _, row := range testCase.StoreData {
		e, err := newEntityForType(row.Type)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(row.Entity, e))
		require.NoError(t, store.Save(e))
	}
}

func newEntityForType(kind string) (entity.Interface, error) {
	switch kind {
	case "factory":
		return &Factory{}, nil
	case "bundle":
		return &Bundle{}, nil
	case "token":
		return &Token{}, nil
	case "pair":
		return &Pair{}, nil
	case "transaction":
		return &Transaction{}, nil
	case "mint":
		return &Mint{}, nil
	case "burn":
		return &Burn{}, nil
	case "swap":
		return &Swap{}, nil
	default:
		return nil, fmt.Errorf("unknown entity type %q", kind)
	}
}

// TestEvents feeds events through the router, failing the test on the
// first handler error.
func TestEvents(t *testing.T, s *Subgraph, events []Event) {
	t.Helper()

	for _, event := range events {
		require.NoError(t, s.HandleEvent(event))
	}
}

func testHeader(logAddress string, blockNum uint64, logIndex uint64, trxHash string) EventHeader {
	return EventHeader{
		LogAddress: eth.MustNewAddress(logAddress),
		LogIndex:   logIndex,
		Block: BlockRef{
			ID:        fmt.Sprintf("block-%d", blockNum),
			Number:    blockNum,
			Timestamp: time.Unix(1650000000+int64(blockNum)*3, 0).UTC(),
		},
		Transaction: TransactionRef{
			Hash: mustNewHash(trxHash),
			From: eth.MustNewAddress("0x00000000000000000000000000000000000000f0"),
		},
	}
}

func mustNewHash(in string) eth.Hash {
	hash, err := eth.NewHash(in)
	if err != nil {
		panic(fmt.Errorf("invalid hash %q: %w", in, err))
	}
	return hash
}
