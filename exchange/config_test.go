package exchange

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadNetworkConfig(t *testing.T) {
	path := writeConfigFile(t, `---
network: bsc-mainnet
factoryAddress: "0x918D7e714243F7d9d463C37e106235dCde294ffC"
wrappedNativeAddress: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"
usdtPairAddress: "0x00000000000000000000000000000000000000A1"
whitelist:
  - "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"
  - "0x55d398326f99059fF775485246999027B3197955"
`)

	config, err := LoadNetworkConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "bsc-mainnet", config.Network)

	// addresses come out in canonical lowercase form
	assert.Equal(t, "0x918d7e714243f7d9d463c37e106235dcde294ffc", config.FactoryAddress)
	assert.Equal(t, "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c", config.WrappedNativeAddress)
	assert.Equal(t, "0x00000000000000000000000000000000000000a1", config.USDTPairAddress)
	assert.Equal(t, "", config.USDCPairAddress)
	assert.Equal(t, []string{
		"0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c",
		"0x55d398326f99059ff775485246999027b3197955",
	}, config.Whitelist)
}

func TestLoadNetworkConfigMissingFactory(t *testing.T) {
	path := writeConfigFile(t, `---
network: bsc-mainnet
wrappedNativeAddress: "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
`)

	_, err := LoadNetworkConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "factoryAddress")
}

func TestLoadNetworkConfigInvalidWhitelistEntry(t *testing.T) {
	path := writeConfigFile(t, `---
network: bsc-mainnet
factoryAddress: "0x918d7e714243f7d9d463c37e106235dcde294ffc"
wrappedNativeAddress: "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
whitelist:
  - "not-an-address"
`)

	_, err := LoadNetworkConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whitelist entry 0")
}

func TestLoadNetworkConfigMissingFile(t *testing.T) {
	_, err := LoadNetworkConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestIsWhitelisted(t *testing.T) {
	config := testNetworkConfig()

	assert.True(t, config.IsWhitelisted(testNativeAddress))
	assert.True(t, config.IsWhitelisted(testDAIAddress))
	assert.False(t, config.IsWhitelisted(testPairAddress))
}
