package exchange

import (
	"fmt"

	"github.com/impossiblefinance/exchange-indexer/entity"
)

// Factory is the singleton aggregate for the exchange, keyed by the
// factory contract address.
type Factory struct {
	entity.Base
	TotalPairs           entity.Int   `json:"totalPairs"`
	TotalTransactions    entity.Int   `json:"totalTransactions"`
	TotalVolumeUSD       entity.Float `json:"totalVolumeUSD"`
	TotalVolumeNative    entity.Float `json:"totalVolumeNative"`
	UntrackedVolumeUSD   entity.Float `json:"untrackedVolumeUSD"`
	TotalLiquidityUSD    entity.Float `json:"totalLiquidityUSD"`
	TotalLiquidityNative entity.Float `json:"totalLiquidityNative"`
}

func NewFactory(id string) *Factory {
	return &Factory{
		Base:                 entity.NewBase(id),
		TotalPairs:           IL(0),
		TotalTransactions:    IL(0),
		TotalVolumeUSD:       FL(0),
		TotalVolumeNative:    FL(0),
		UntrackedVolumeUSD:   FL(0),
		TotalLiquidityUSD:    FL(0),
		TotalLiquidityNative: FL(0),
	}
}

// Bundle holds the native token price in USD. There is a single row with
// ID "1".
type Bundle struct {
	entity.Base
	NativePriceUSD entity.Float `json:"nativePriceUSD"`
}

func NewBundle(id string) *Bundle {
	return &Bundle{
		Base:           entity.NewBase(id),
		NativePriceUSD: FL(0),
	}
}

type Token struct {
	entity.Base
	Name               string        `json:"name"`
	Symbol             string        `json:"symbol"`
	Decimals           entity.Int    `json:"decimals"`
	TradeVolume        entity.Float  `json:"tradeVolume"`
	TradeVolumeUSD     entity.Float  `json:"tradeVolumeUSD"`
	UntrackedVolumeUSD entity.Float  `json:"untrackedVolumeUSD"`
	TotalTransactions  entity.Int    `json:"totalTransactions"`
	TotalLiquidity     entity.Float  `json:"totalLiquidity"`
	DerivedNative      *entity.Float `json:"derivedNative,omitempty"`
	DerivedUSD         *entity.Float `json:"derivedUSD,omitempty"`
}

func NewToken(id string) *Token {
	return &Token{
		Base:               entity.NewBase(id),
		Decimals:           IL(0),
		TradeVolume:        FL(0),
		TradeVolumeUSD:     FL(0),
		UntrackedVolumeUSD: FL(0),
		TotalTransactions:  IL(0),
		TotalLiquidity:     FL(0),
	}
}

type Pair struct {
	entity.Base
	Name                   string       `json:"name"`
	Token0                 string       `json:"token0"`
	Token1                 string       `json:"token1"`
	Reserve0               entity.Float `json:"reserve0"`
	Reserve1               entity.Float `json:"reserve1"`
	TotalSupply            entity.Float `json:"totalSupply"`
	ReserveNative          entity.Float `json:"reserveNative"`
	ReserveUSD             entity.Float `json:"reserveUSD"`
	TrackedReserveNative   entity.Float `json:"trackedReserveNative"`
	Token0Price            entity.Float `json:"token0Price"`
	Token1Price            entity.Float `json:"token1Price"`
	VolumeToken0           entity.Float `json:"volumeToken0"`
	VolumeToken1           entity.Float `json:"volumeToken1"`
	VolumeUSD              entity.Float `json:"volumeUSD"`
	UntrackedVolumeUSD     entity.Float `json:"untrackedVolumeUSD"`
	TotalTransactions      entity.Int   `json:"totalTransactions"`
	LiquidityProviderCount entity.Int   `json:"liquidityProviderCount"`
	Block                  entity.Int   `json:"block"`
	Timestamp              entity.Int   `json:"timestamp"`
}

func NewPair(id string) *Pair {
	return &Pair{
		Base:                   entity.NewBase(id),
		Reserve0:               FL(0),
		Reserve1:               FL(0),
		TotalSupply:            FL(0),
		ReserveNative:          FL(0),
		ReserveUSD:             FL(0),
		TrackedReserveNative:   FL(0),
		Token0Price:            FL(0),
		Token1Price:            FL(0),
		VolumeToken0:           FL(0),
		VolumeToken1:           FL(0),
		VolumeUSD:              FL(0),
		UntrackedVolumeUSD:     FL(0),
		TotalTransactions:      IL(0),
		LiquidityProviderCount: IL(0),
		Block:                  IL(0),
		Timestamp:              IL(0),
	}
}

// Transaction groups the mint, burn and swap records minted while
// processing the logs of one chain transaction.
type Transaction struct {
	entity.Base
	Block     entity.Int `json:"block"`
	Timestamp entity.Int `json:"timestamp"`
	Mints     []string   `json:"mints,omitempty"`
	Burns     []string   `json:"burns,omitempty"`
	Swaps     []string   `json:"swaps,omitempty"`
}

func NewTransaction(id string) *Transaction {
	return &Transaction{
		Base:      entity.NewBase(id),
		Block:     IL(0),
		Timestamp: IL(0),
	}
}

// LatestMint returns the ID of the most recently appended mint, or ""
// when the transaction has none.
func (t *Transaction) LatestMint() string {
	if len(t.Mints) == 0 {
		return ""
	}
	return t.Mints[len(t.Mints)-1]
}

// LatestBurn returns the ID of the most recently appended burn, or ""
// when the transaction has none.
func (t *Transaction) LatestBurn() string {
	if len(t.Burns) == 0 {
		return ""
	}
	return t.Burns[len(t.Burns)-1]
}

// ReplaceLatestBurn swaps the last burn reference in place.
func (t *Transaction) ReplaceLatestBurn(id string) {
	t.Burns[len(t.Burns)-1] = id
}

// DropLatestMint forgets the last mint reference. Used when a fee mint is
// absorbed into a burn.
func (t *Transaction) DropLatestMint() {
	t.Mints = t.Mints[:len(t.Mints)-1]
}

// MintStatus tracks the two-log mint protocol: a pool Transfer from the
// zero address opens a pending mint, the pool Mint log finalizes it.
type MintStatus string

const (
	MintStatusPending   MintStatus = "Pending"
	MintStatusFinalized MintStatus = "Finalized"
)

type Mint struct {
	entity.Base
	Transaction  string        `json:"transaction"`
	Timestamp    entity.Int    `json:"timestamp"`
	Pair         string        `json:"pair"`
	Token0       string        `json:"token0"`
	Token1       string        `json:"token1"`
	To           string        `json:"to"`
	Liquidity    entity.Float  `json:"liquidity"`
	Status       MintStatus    `json:"status"`
	Sender       *string       `json:"sender,omitempty"`
	Amount0      *entity.Float `json:"amount0,omitempty"`
	Amount1      *entity.Float `json:"amount1,omitempty"`
	LogIndex     *entity.Int   `json:"logIndex,omitempty"`
	AmountUSD    *entity.Float `json:"amountUSD,omitempty"`
	FeeTo        *string       `json:"feeTo,omitempty"`
	FeeLiquidity *entity.Float `json:"feeLiquidity,omitempty"`
}

func NewMint(id string) *Mint {
	return &Mint{
		Base:      entity.NewBase(id),
		Timestamp: IL(0),
		Liquidity: FL(0),
		Status:    MintStatusPending,
	}
}

type Burn struct {
	entity.Base
	Transaction   string        `json:"transaction"`
	Timestamp     entity.Int    `json:"timestamp"`
	Pair          string        `json:"pair"`
	Token0        string        `json:"token0"`
	Token1        string        `json:"token1"`
	Liquidity     entity.Float  `json:"liquidity"`
	NeedsComplete bool          `json:"needsComplete"`
	Sender        *string       `json:"sender,omitempty"`
	Amount0       *entity.Float `json:"amount0,omitempty"`
	Amount1       *entity.Float `json:"amount1,omitempty"`
	To            *string       `json:"to,omitempty"`
	LogIndex      *entity.Int   `json:"logIndex,omitempty"`
	AmountUSD     *entity.Float `json:"amountUSD,omitempty"`
	FeeTo         *string       `json:"feeTo,omitempty"`
	FeeLiquidity  *entity.Float `json:"feeLiquidity,omitempty"`
}

func NewBurn(id string) *Burn {
	return &Burn{
		Base:      entity.NewBase(id),
		Timestamp: IL(0),
		Liquidity: FL(0),
	}
}

type Swap struct {
	entity.Base
	Transaction string       `json:"transaction"`
	Timestamp   entity.Int   `json:"timestamp"`
	Pair        string       `json:"pair"`
	Token0      string       `json:"token0"`
	Token1      string       `json:"token1"`
	Sender      string       `json:"sender"`
	From        string       `json:"from"`
	Amount0In   entity.Float `json:"amount0In"`
	Amount1In   entity.Float `json:"amount1In"`
	Amount0Out  entity.Float `json:"amount0Out"`
	Amount1Out  entity.Float `json:"amount1Out"`
	To          string       `json:"to"`
	LogIndex    *entity.Int  `json:"logIndex,omitempty"`
	AmountUSD   entity.Float `json:"amountUSD"`
}

func NewSwap(id string) *Swap {
	return &Swap{
		Base:       entity.NewBase(id),
		Timestamp:  IL(0),
		Amount0In:  FL(0),
		Amount1In:  FL(0),
		Amount0Out: FL(0),
		Amount1Out: FL(0),
		AmountUSD:  FL(0),
	}
}

// User is a minimal row created for every address that held liquidity or
// swapped, keyed by the address.
type User struct {
	entity.Base
	USDSwapped entity.Float `json:"usdSwapped"`
}

func NewUser(id string) *User {
	return &User{
		Base:       entity.NewBase(id),
		USDSwapped: FL(0),
	}
}

// LiquidityPosition tracks one user's liquidity token balance on one
// pair, keyed "<pair>-<user>".
type LiquidityPosition struct {
	entity.Base
	User                  string       `json:"user"`
	Pair                  string       `json:"pair"`
	LiquidityTokenBalance entity.Float `json:"liquidityTokenBalance"`
}

func NewLiquidityPosition(id string) *LiquidityPosition {
	return &LiquidityPosition{
		Base:                  entity.NewBase(id),
		LiquidityTokenBalance: FL(0),
	}
}

// LiquidityPositionSnapshot freezes a position together with the pair
// pricing at one moment, keyed "<position>-<timestamp>".
type LiquidityPositionSnapshot struct {
	entity.Base
	LiquidityPosition         string       `json:"liquidityPosition"`
	Timestamp                 entity.Int   `json:"timestamp"`
	Block                     entity.Int   `json:"block"`
	User                      string       `json:"user"`
	Pair                      string       `json:"pair"`
	Token0PriceUSD            entity.Float `json:"token0PriceUSD"`
	Token1PriceUSD            entity.Float `json:"token1PriceUSD"`
	Reserve0                  entity.Float `json:"reserve0"`
	Reserve1                  entity.Float `json:"reserve1"`
	ReserveUSD                entity.Float `json:"reserveUSD"`
	LiquidityTokenTotalSupply entity.Float `json:"liquidityTokenTotalSupply"`
	LiquidityTokenBalance     entity.Float `json:"liquidityTokenBalance"`
}

func NewLiquidityPositionSnapshot(id string) *LiquidityPositionSnapshot {
	return &LiquidityPositionSnapshot{
		Base:                      entity.NewBase(id),
		Timestamp:                 IL(0),
		Block:                     IL(0),
		Token0PriceUSD:            FL(0),
		Token1PriceUSD:            FL(0),
		Reserve0:                  FL(0),
		Reserve1:                  FL(0),
		ReserveUSD:                FL(0),
		LiquidityTokenTotalSupply: FL(0),
		LiquidityTokenBalance:     FL(0),
	}
}

// ImpossibleDayData is the exchange-wide daily rollup, keyed by day ID.
type ImpossibleDayData struct {
	entity.Base
	Date                 int64        `json:"date"`
	DailyVolumeNative    entity.Float `json:"dailyVolumeNative"`
	DailyVolumeUSD       entity.Float `json:"dailyVolumeUSD"`
	DailyVolumeUntracked entity.Float `json:"dailyVolumeUntracked"`
	TotalVolumeNative    entity.Float `json:"totalVolumeNative"`
	TotalVolumeUSD       entity.Float `json:"totalVolumeUSD"`
	TotalLiquidityNative entity.Float `json:"totalLiquidityNative"`
	TotalLiquidityUSD    entity.Float `json:"totalLiquidityUSD"`
	TotalTransactions    entity.Int   `json:"totalTransactions"`
}

func NewImpossibleDayData(id string) *ImpossibleDayData {
	return &ImpossibleDayData{
		Base:                 entity.NewBase(id),
		DailyVolumeNative:    FL(0),
		DailyVolumeUSD:       FL(0),
		DailyVolumeUntracked: FL(0),
		TotalVolumeNative:    FL(0),
		TotalVolumeUSD:       FL(0),
		TotalLiquidityNative: FL(0),
		TotalLiquidityUSD:    FL(0),
		TotalTransactions:    IL(0),
	}
}

// PairDayData is the per-pair daily rollup, keyed "<pair>-<dayID>".
type PairDayData struct {
	entity.Base
	Date              int64        `json:"date"`
	PairAddress       string       `json:"pairAddress"`
	Token0            string       `json:"token0"`
	Token1            string       `json:"token1"`
	Reserve0          entity.Float `json:"reserve0"`
	Reserve1          entity.Float `json:"reserve1"`
	TotalSupply       entity.Float `json:"totalSupply"`
	ReserveUSD        entity.Float `json:"reserveUSD"`
	DailyVolumeToken0 entity.Float `json:"dailyVolumeToken0"`
	DailyVolumeToken1 entity.Float `json:"dailyVolumeToken1"`
	DailyVolumeUSD    entity.Float `json:"dailyVolumeUSD"`
	DailyTxns         entity.Int   `json:"dailyTxns"`
}

func NewPairDayData(id string) *PairDayData {
	return &PairDayData{
		Base:              entity.NewBase(id),
		Reserve0:          FL(0),
		Reserve1:          FL(0),
		TotalSupply:       FL(0),
		ReserveUSD:        FL(0),
		DailyVolumeToken0: FL(0),
		DailyVolumeToken1: FL(0),
		DailyVolumeUSD:    FL(0),
		DailyTxns:         IL(0),
	}
}

// PairHourData is the per-pair hourly rollup, keyed "<pair>-<hourID>".
type PairHourData struct {
	entity.Base
	HourStartUnix      int64        `json:"hourStartUnix"`
	Pair               string       `json:"pair"`
	Reserve0           entity.Float `json:"reserve0"`
	Reserve1           entity.Float `json:"reserve1"`
	ReserveUSD         entity.Float `json:"reserveUSD"`
	HourlyVolumeToken0 entity.Float `json:"hourlyVolumeToken0"`
	HourlyVolumeToken1 entity.Float `json:"hourlyVolumeToken1"`
	HourlyVolumeUSD    entity.Float `json:"hourlyVolumeUSD"`
	HourlyTxns         entity.Int   `json:"hourlyTxns"`
}

func NewPairHourData(id string) *PairHourData {
	return &PairHourData{
		Base:               entity.NewBase(id),
		Reserve0:           FL(0),
		Reserve1:           FL(0),
		ReserveUSD:         FL(0),
		HourlyVolumeToken0: FL(0),
		HourlyVolumeToken1: FL(0),
		HourlyVolumeUSD:    FL(0),
		HourlyTxns:         IL(0),
	}
}

// TokenDayData is the per-token daily rollup, keyed "<token>-<dayID>".
type TokenDayData struct {
	entity.Base
	Date                 int64        `json:"date"`
	Token                string       `json:"token"`
	DailyVolumeToken     entity.Float `json:"dailyVolumeToken"`
	DailyVolumeNative    entity.Float `json:"dailyVolumeNative"`
	DailyVolumeUSD       entity.Float `json:"dailyVolumeUSD"`
	DailyTxns            entity.Int   `json:"dailyTxns"`
	TotalLiquidityToken  entity.Float `json:"totalLiquidityToken"`
	TotalLiquidityNative entity.Float `json:"totalLiquidityNative"`
	TotalLiquidityUSD    entity.Float `json:"totalLiquidityUSD"`
	PriceUSD             entity.Float `json:"priceUSD"`
}

func NewTokenDayData(id string) *TokenDayData {
	return &TokenDayData{
		Base:                 entity.NewBase(id),
		DailyVolumeToken:     FL(0),
		DailyVolumeNative:    FL(0),
		DailyVolumeUSD:       FL(0),
		DailyTxns:            IL(0),
		TotalLiquidityToken:  FL(0),
		TotalLiquidityNative: FL(0),
		TotalLiquidityUSD:    FL(0),
		PriceUSD:             FL(0),
	}
}

// getOrCreateTransaction loads the transaction row for hash, stamping the
// current block coordinates on first sight.
func (s *Subgraph) getOrCreateTransaction(hash string) (*Transaction, error) {
	trx := NewTransaction(hash)
	if err := s.Load(trx); err != nil {
		return nil, fmt.Errorf("loading transaction %s: %w", hash, err)
	}

	if !trx.Exists() {
		trx.Timestamp = IL(s.Block().Timestamp.Unix())
		trx.Block = IL(int64(s.Block().Number))
	}

	return trx, nil
}

func (s *Subgraph) getFactory() (*Factory, error) {
	factory := NewFactory(s.net.FactoryAddress)
	if err := s.Load(factory); err != nil {
		return nil, fmt.Errorf("loading factory: %w", err)
	}
	return factory, nil
}

func (s *Subgraph) getBundle() (*Bundle, error) {
	bundle := NewBundle("1")
	if err := s.Load(bundle); err != nil {
		return nil, fmt.Errorf("loading bundle: %w", err)
	}
	return bundle, nil
}

// getOrCreateUser ensures a user row exists for address.
func (s *Subgraph) getOrCreateUser(address string) (*User, error) {
	user := NewUser(address)
	if err := s.Load(user); err != nil {
		return nil, fmt.Errorf("loading user %s: %w", address, err)
	}
	if !user.Exists() {
		if err := s.Save(user); err != nil {
			return nil, fmt.Errorf("saving user %s: %w", address, err)
		}
	}
	return user, nil
}
