package exchange

import (
	"math/big"

	eth "github.com/streamingfast/eth-go"
)

// StaticChainReader answers contract reads from in-memory maps. It backs
// the CLI's replay mode, where every read the handlers may issue is
// declared up front, and the test harness.
type StaticChainReader struct {
	pairs    map[string]eth.Address
	tokens   map[string]*TokenMetadata
	balances map[string]map[string]*big.Int
}

func NewStaticChainReader() *StaticChainReader {
	return &StaticChainReader{
		pairs:    map[string]eth.Address{},
		tokens:   map[string]*TokenMetadata{},
		balances: map[string]map[string]*big.Int{},
	}
}

// SetPair declares that the factory pairs tokenA and tokenB at pair.
// Token order does not matter.
func (c *StaticChainReader) SetPair(pair, tokenA, tokenB eth.Address) {
	c.pairs[tokensKey(tokenA.Pretty(), tokenB.Pretty())] = pair
}

func (c *StaticChainReader) SetTokenMetadata(token eth.Address, meta *TokenMetadata) {
	c.tokens[token.Pretty()] = meta
}

func (c *StaticChainReader) SetBalance(pool, holder eth.Address, balance *big.Int) {
	key := pool.Pretty()
	if c.balances[key] == nil {
		c.balances[key] = map[string]*big.Int{}
	}
	c.balances[key][holder.Pretty()] = balance
}

func (c *StaticChainReader) PairForTokens(tokenA, tokenB eth.Address) (eth.Address, error) {
	pair, ok := c.pairs[tokensKey(tokenA.Pretty(), tokenB.Pretty())]
	if !ok {
		return nil, nil
	}
	return pair, nil
}

// TokenMetadata returns the declared metadata, or empty metadata for an
// undeclared token, matching a contract whose reads all revert.
func (c *StaticChainReader) TokenMetadata(token eth.Address) (*TokenMetadata, error) {
	if meta, ok := c.tokens[token.Pretty()]; ok {
		return meta, nil
	}
	return &TokenMetadata{}, nil
}

// PoolTokenBalanceOf returns the declared balance, or zero for an
// undeclared holder.
func (c *StaticChainReader) PoolTokenBalanceOf(pool, holder eth.Address) (*big.Int, error) {
	if holders, ok := c.balances[pool.Pretty()]; ok {
		if balance, ok := holders[holder.Pretty()]; ok {
			return balance, nil
		}
	}
	return big.NewInt(0), nil
}

func tokensKey(tokenA, tokenB string) string {
	if tokenA > tokenB {
		return tokenB + tokenA
	}
	return tokenA + tokenB
}
