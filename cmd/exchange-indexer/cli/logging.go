package cli

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.ApplicationLogger("exchange-indexer", "github.com/impossiblefinance/exchange-indexer/cmd/exchange-indexer",
		logging.WithSwitcherServerAutoStart(),
	)
}
