package main

import (
	"github.com/impossiblefinance/exchange-indexer/cmd/exchange-indexer/cli"
)

func main() {
	cli.Main()
}
