package exchange

import (
	"fmt"
	"math/big"

	"github.com/impossiblefinance/exchange-indexer/entity"
	eth "github.com/streamingfast/eth-go"
	"go.uber.org/zap"
)

// GetNativePriceInUSD derives the USD price of the native token from the
// configured stable/native anchor pairs. Every anchor keeps the
// stablecoin as token0 and wrapped native as token1, so token0Price is
// that pool's USD quote and reserve1 its native depth. With more than one
// live anchor the quotes are blended by native reserve weight.
func (s *Subgraph) GetNativePriceInUSD() (*big.Float, error) {
	usdtPair, err := s.loadAnchorPair(s.net.USDTPairAddress)
	if err != nil {
		return nil, err
	}
	usdcPair, err := s.loadAnchorPair(s.net.USDCPairAddress)
	if err != nil {
		return nil, err
	}
	daiPair, err := s.loadAnchorPair(s.net.DAIPairAddress)
	if err != nil {
		return nil, err
	}

	live := []*Pair{}
	for _, pair := range []*Pair{usdtPair, usdcPair, daiPair} {
		if pair != nil && pair.Exists() {
			live = append(live, pair)
		}
	}

	switch len(live) {
	case 0:
		return big.NewFloat(0), nil
	case 1:
		return live[0].Token0Price.Float().SetPrec(100), nil
	}

	totalNativeReserve := bf().SetPrec(100)
	for _, pair := range live {
		totalNativeReserve.Add(totalNativeReserve, pair.Reserve1.Float())
	}

	if totalNativeReserve.Cmp(bf()) == 0 {
		return big.NewFloat(0), nil
	}

	price := bf().SetPrec(100)
	for _, pair := range live {
		weight := entity.FloatQuo(pair.Reserve1, F(totalNativeReserve))
		price.Add(price, bf().Mul(pair.Token0Price.Float(), weight.Float()).SetPrec(100))
	}

	return price.SetPrec(100), nil
}

func (s *Subgraph) loadAnchorPair(address string) (*Pair, error) {
	if address == "" {
		return nil, nil
	}
	pair := NewPair(address)
	if err := s.Load(pair); err != nil {
		return nil, fmt.Errorf("loading anchor pair %s: %w", address, err)
	}
	return pair, nil
}

// FindNativePerToken prices a token in native units by walking the
// whitelist in priority order and quoting through the first whitelist
// token the factory pairs it with. Tokens without any whitelisted pool
// price at zero.
func (s *Subgraph) FindNativePerToken(tokenAddress string) (*big.Float, error) {
	if tokenAddress == s.net.WrappedNativeAddress {
		return big.NewFloat(1), nil
	}

	for _, otherToken := range s.net.Whitelist {
		if otherToken == tokenAddress {
			continue
		}

		pairAddress, err := s.chain.PairForTokens(eth.MustNewAddress(tokenAddress), eth.MustNewAddress(otherToken))
		if err != nil {
			return nil, fmt.Errorf("resolving pair for %s/%s: %w", tokenAddress, otherToken, err)
		}
		if pairAddress == nil {
			continue
		}

		pair := NewPair(pairAddress.Pretty())
		if err := s.Load(pair); err != nil {
			return nil, fmt.Errorf("loading pair %s: %w", pairAddress.Pretty(), err)
		}
		if !pair.Exists() {
			s.Log.Debug("skipping unindexed pair while pricing",
				zap.String("pair", pairAddress.Pretty()),
				zap.String("token", tokenAddress),
			)
			continue
		}

		if pair.Token0 == tokenAddress {
			token1 := NewToken(pair.Token1)
			if err := s.Load(token1); err != nil {
				return nil, fmt.Errorf("loading token %s: %w", pair.Token1, err)
			}
			return bf().Mul(pair.Token1Price.Float(), token1.DerivedNative.Float()), nil
		}
		if pair.Token1 == tokenAddress {
			token0 := NewToken(pair.Token0)
			if err := s.Load(token0); err != nil {
				return nil, fmt.Errorf("loading token %s: %w", pair.Token0, err)
			}
			return bf().Mul(pair.Token0Price.Float(), token0.DerivedNative.Float()), nil
		}
	}

	return big.NewFloat(0), nil
}

// getTrackedVolumeUSD values a swap in USD through whitelisted legs only:
// the average when both sides are whitelisted, the full whitelisted side
// when only one is, zero otherwise.
func (s *Subgraph) getTrackedVolumeUSD(bundle *Bundle, tokenAmount0 *big.Float, token0 *Token, tokenAmount1 *big.Float, token1 *Token) *big.Float {
	price0 := bf().Mul(token0.DerivedNative.Float(), bundle.NativePriceUSD.Float())
	price1 := bf().Mul(token1.DerivedNative.Float(), bundle.NativePriceUSD.Float())

	token0Whitelisted := s.net.IsWhitelisted(token0.ID)
	token1Whitelisted := s.net.IsWhitelisted(token1.ID)

	if token0Whitelisted && token1Whitelisted {
		sum := bf().Add(
			bf().Mul(tokenAmount0, price0),
			bf().Mul(tokenAmount1, price1),
		)
		return bf().Quo(sum, big.NewFloat(2))
	}

	if token0Whitelisted && !token1Whitelisted {
		return bf().Mul(tokenAmount0, price0)
	}

	if !token0Whitelisted && token1Whitelisted {
		return bf().Mul(tokenAmount1, price1)
	}

	return big.NewFloat(0)
}

// getTrackedLiquidityUSD values pool reserves in USD through whitelisted
// legs only. Unlike volume, a single whitelisted side counts double, so a
// half-priceable pool still reports its full depth.
func (s *Subgraph) getTrackedLiquidityUSD(bundle *Bundle, tokenAmount0 *big.Float, token0 *Token, tokenAmount1 *big.Float, token1 *Token) *big.Float {
	price0 := bf().Mul(token0.DerivedNative.Float().SetPrec(100), bundle.NativePriceUSD.Float().SetPrec(100)).SetPrec(100)
	price1 := bf().Mul(token1.DerivedNative.Float().SetPrec(100), bundle.NativePriceUSD.Float().SetPrec(100)).SetPrec(100)

	token0Whitelisted := s.net.IsWhitelisted(token0.ID)
	token1Whitelisted := s.net.IsWhitelisted(token1.ID)

	if token0Whitelisted && token1Whitelisted {
		return bf().Add(
			bf().Mul(tokenAmount0, price0).SetPrec(100),
			bf().Mul(tokenAmount1, price1).SetPrec(100),
		).SetPrec(100)
	}

	floatTwo := big.NewFloat(2)
	if token0Whitelisted && !token1Whitelisted {
		return bf().Mul(
			bf().Mul(tokenAmount0, price0).SetPrec(100),
			floatTwo,
		).SetPrec(100)
	}

	if !token0Whitelisted && token1Whitelisted {
		return bf().Mul(
			bf().Mul(tokenAmount1, price1).SetPrec(100),
			floatTwo,
		).SetPrec(100)
	}

	return big.NewFloat(0)
}
