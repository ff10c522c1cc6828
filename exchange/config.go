package exchange

import (
	"fmt"
	"io/ioutil"

	"github.com/ghodss/yaml"
	eth "github.com/streamingfast/eth-go"
)

// NetworkConfig holds the per-deployment addresses the handlers depend on.
// Every address is normalized to its lowercase hex form at load time, so
// handlers can compare IDs with plain string equality.
type NetworkConfig struct {
	Network string `json:"network"`

	FactoryAddress       string `json:"factoryAddress"`
	WrappedNativeAddress string `json:"wrappedNativeAddress"`

	// The three stable/native anchor pairs. In each one the stablecoin is
	// token0 and the wrapped native token is token1. An empty address means
	// the pair is not deployed on this network.
	USDTPairAddress string `json:"usdtPairAddress"`
	USDCPairAddress string `json:"usdcPairAddress"`
	DAIPairAddress  string `json:"daiPairAddress"`

	// Whitelist is the ordered list of tokens trusted for pricing. Order
	// matters: derived price discovery walks it front to back.
	Whitelist []string `json:"whitelist"`
}

func LoadNetworkConfig(path string) (*NetworkConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network config: %w", err)
	}

	config := &NetworkConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("unmarshalling network config: %w", err)
	}

	if err := config.Normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// Normalize rewrites every configured address to its canonical lowercase
// form and rejects malformed ones.
func (c *NetworkConfig) Normalize() error {
	required := map[string]*string{
		"factoryAddress":       &c.FactoryAddress,
		"wrappedNativeAddress": &c.WrappedNativeAddress,
	}
	for name, field := range required {
		normalized, err := normalizeAddress(*field)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if normalized == "" {
			return fmt.Errorf("missing %s", name)
		}
		*field = normalized
	}

	optional := map[string]*string{
		"usdtPairAddress": &c.USDTPairAddress,
		"usdcPairAddress": &c.USDCPairAddress,
		"daiPairAddress":  &c.DAIPairAddress,
	}
	for name, field := range optional {
		normalized, err := normalizeAddress(*field)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*field = normalized
	}

	for i, addr := range c.Whitelist {
		normalized, err := normalizeAddress(addr)
		if err != nil {
			return fmt.Errorf("invalid whitelist entry %d: %w", i, err)
		}
		c.Whitelist[i] = normalized
	}

	return nil
}

func (c *NetworkConfig) IsWhitelisted(address string) bool {
	for _, addr := range c.Whitelist {
		if addr == address {
			return true
		}
	}
	return false
}

func normalizeAddress(in string) (string, error) {
	if in == "" {
		return "", nil
	}
	addr, err := eth.NewAddress(in)
	if err != nil {
		return "", fmt.Errorf("parsing address %q: %w", in, err)
	}
	return addr.Pretty(), nil
}
