package exchange

import (
	"fmt"

	"github.com/impossiblefinance/exchange-indexer/entity"
	eth "github.com/streamingfast/eth-go"
	"go.uber.org/zap"
)

func (s *Subgraph) HandleFactoryPairCreatedEvent(ev *FactoryPairCreatedEvent) error {
	if ev.LogAddress.Pretty() != s.net.FactoryAddress {
		return fmt.Errorf("pair created event from unexpected factory %s", ev.LogAddress.Pretty())
	}

	factory, err := s.getFactory()
	if err != nil {
		return err
	}

	if !factory.Exists() {
		bundle := NewBundle("1")
		if err := s.Save(bundle); err != nil {
			return fmt.Errorf("saving bundle: %w", err)
		}
	}

	pair, err := s.newPair(ev.Pair, ev.Token0, ev.Token1)
	if err != nil {
		return err
	}

	factory.TotalPairs = entity.IntAdd(factory.TotalPairs, IL(1))
	if err := s.Save(factory); err != nil {
		return fmt.Errorf("saving factory: %w", err)
	}

	if err := s.Save(pair); err != nil {
		return fmt.Errorf("saving pair: %w", err)
	}

	s.Log.Debug("created pair",
		zap.String("pair", pair.ID),
		zap.String("token0", pair.Token0),
		zap.String("token1", pair.Token1),
	)

	return nil
}

func (s *Subgraph) newPair(pairAddress, token0Address, token1Address eth.Address) (*Pair, error) {
	pair := NewPair(pairAddress.Pretty())

	token0, err := s.getOrCreateToken(token0Address)
	if err != nil {
		return nil, err
	}

	token1, err := s.getOrCreateToken(token1Address)
	if err != nil {
		return nil, err
	}

	pair.Token0 = token0.ID
	pair.Token1 = token1.ID
	pair.Block = entity.NewIntFromLiteralUnsigned(s.Block().Number)
	pair.Timestamp = IL(s.Block().Timestamp.Unix())
	pair.Name = fmt.Sprintf("%s-%s", token0.Symbol, token1.Symbol)

	return pair, nil
}

// getOrCreateToken returns the stored token, reading metadata from the
// contract on first sight. Metadata reads are best effort: tokens without
// a readable name or symbol are kept as "unknown", a missing decimals
// answer defaults to 18.
func (s *Subgraph) getOrCreateToken(tokenAddress eth.Address) (*Token, error) {
	token := NewToken(tokenAddress.Pretty())
	if err := s.Load(token); err != nil {
		return nil, fmt.Errorf("loading token %s: %w", token.ID, err)
	}

	if token.Exists() {
		return token, nil
	}

	meta, err := s.chain.TokenMetadata(tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("reading token metadata %s: %w", token.ID, err)
	}

	if meta.Name != nil {
		token.Name = *meta.Name
	} else {
		token.Name = "unknown"
	}

	if meta.Symbol != nil {
		token.Symbol = *meta.Symbol
	} else {
		token.Symbol = "unknown"
	}

	if meta.Decimals != nil {
		token.Decimals = IL(int64(*meta.Decimals))
	} else {
		token.Decimals = IL(18)
	}

	token.DerivedNative = FL(0).Ptr()
	token.DerivedUSD = FL(0).Ptr()

	if err := s.Save(token); err != nil {
		return nil, fmt.Errorf("saving token %s: %w", token.ID, err)
	}

	return token, nil
}
